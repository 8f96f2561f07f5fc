// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/prestodb/presto-yarn-agent/cmd/presto-configure/cmd"

func main() {
	cmd.Execute()
}
