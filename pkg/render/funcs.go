// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"maps"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"sigs.k8s.io/yaml"
)

func funcMap() template.FuncMap {
	f := sprig.TxtFuncMap()
	// Templates render from the resolved parameter set only; the agent
	// environment must not leak into configuration files.
	delete(f, "env")
	delete(f, "expandenv")

	extra := template.FuncMap{
		"toYaml":   toYAML,
		"fromYaml": fromYAML,
	}
	maps.Copy(f, extra)

	return f
}

func toYAML(v interface{}) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(string(data), "\n")
}

func fromYAML(str string) map[string]interface{} {
	m := map[string]interface{}{}

	if err := yaml.Unmarshal([]byte(str), &m); err != nil {
		m["Error"] = err.Error()
	}
	return m
}
