// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

package materialize

import (
	"os"
	"os/user"
	"strconv"

	"github.com/mandelsoft/goutils/errors"
)

// Ownership assigns a unix owner and group to a path. It is a separate
// collaborator because ownership only exists on the host filesystem; test
// filesystems record the calls instead.
type Ownership interface {
	Chown(path, owner, group string) error
}

type hostOwnership struct{}

// NewHostOwnership returns an Ownership operating on the host filesystem.
// Lookups resolve against the local user and group databases.
func NewHostOwnership() Ownership {
	return hostOwnership{}
}

func (hostOwnership) Chown(path, owner, group string) error {
	u, err := user.Lookup(owner)
	if err != nil {
		return errors.Wrapf(err, "cannot resolve user %q", owner)
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return errors.Wrapf(err, "cannot resolve group %q", group)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return errors.Wrapf(err, "non-numeric uid %q for user %q", u.Uid, owner)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return errors.Wrapf(err, "non-numeric gid %q for group %q", g.Gid, group)
	}

	if err := os.Chown(path, uid, gid); err != nil {
		return errors.Wrapf(err, "cannot chown %s to %s:%s", path, owner, group)
	}
	return nil
}

type nopOwnership struct{}

// NewNopOwnership returns an Ownership that leaves ownership untouched, for
// unprivileged runs.
func NewNopOwnership() Ownership {
	return nopOwnership{}
}

func (nopOwnership) Chown(path, owner, group string) error {
	return nil
}
