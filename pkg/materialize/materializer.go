// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

// Package materialize writes the on-disk configuration of a Presto node from
// a resolved parameter set: the directory layout, the rendered property
// files, the appended JVM and catalog property lines and, when configured,
// staged addon-plugin artifacts.
package materialize

import (
	"os"
	"path"

	"github.com/go-logr/logr"
	"github.com/mandelsoft/goutils/errors"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/prestodb/presto-yarn-agent/pkg/params"
	"github.com/prestodb/presto-yarn-agent/pkg/render"
)

// Component roles selecting the config.properties template variant.
const (
	ComponentCoordinator = "COORDINATOR"
	ComponentWorker      = "WORKER"
)

const (
	configPropertiesFile = "config.properties"
	nodePropertiesFile   = "node.properties"
	jvmConfigFile        = "jvm.config"
)

// ValidateComponent checks a component role tag. The empty tag is legal and
// selects the default template.
func ValidateComponent(component string) error {
	switch component {
	case "", ComponentCoordinator, ComponentWorker:
		return nil
	}
	return errors.Newf("unknown component role %q", component)
}

// Materializer applies a parameter set to a filesystem. It holds no state
// across runs; every invocation re-derives all effects from the parameter
// set.
type Materializer struct {
	fs     vfs.FileSystem
	render render.Renderer
	owner  Ownership
	params *params.ParameterSet
	log    logr.Logger
}

// New creates a Materializer writing through fsys, rendering with r and
// assigning ownership through owner.
func New(fsys vfs.FileSystem, r render.Renderer, owner Ownership, p *params.ParameterSet, log logr.Logger) *Materializer {
	return &Materializer{
		fs:     fsys,
		render: r,
		owner:  owner,
		params: p,
		log:    log,
	}
}

// Apply materializes the configuration for the given component role. Effects
// happen in a fixed order: directories, rendered property files, JVM config
// lines, catalog property lines, plugin staging. The first failure aborts
// the run; partially written state is left behind for the orchestrator to
// retry over.
//
// The JVM config and catalog property files are opened in append mode, so
// repeated invocations accumulate lines. Callers that need a clean slate
// must clear those files beforehand.
func (m *Materializer) Apply(component string) error {
	if err := ValidateComponent(component); err != nil {
		return err
	}
	p := m.params

	dirs := []string{p.Directories.Conf, p.Directories.Catalog, p.Directories.Pid, p.Directories.Log}
	for _, dir := range dirs {
		if err := m.ensureOwnedDir(dir); err != nil {
			return err
		}
	}

	if err := m.renderConfig(configPropertiesFile, component); err != nil {
		return err
	}
	if err := m.renderConfig(nodePropertiesFile, ""); err != nil {
		return err
	}

	if p.JVMArgs != "" {
		args, err := params.DecodeStringList("jvmArgs", p.JVMArgs)
		if err != nil {
			return err
		}
		if err := m.appendLines(path.Join(p.Directories.Conf, jvmConfigFile), args); err != nil {
			return err
		}
	} else {
		m.log.V(1).Info("no jvm args configured, skipping jvm.config")
	}

	if p.CatalogProperties != "" {
		catalogs, err := params.DecodeNamedLists("catalogProperties", p.CatalogProperties)
		if err != nil {
			return err
		}
		for pair := catalogs.Oldest(); pair != nil; pair = pair.Next() {
			dest := path.Join(p.Directories.Catalog, pair.Key+".properties")
			if err := m.appendLines(dest, pair.Value); err != nil {
				return err
			}
		}
	} else {
		m.log.V(1).Info("no catalog properties configured, skipping catalogs")
	}

	if p.AddonPlugins != "" {
		plugins, err := params.DecodeNamedLists("addonPlugins", p.AddonPlugins)
		if err != nil {
			return err
		}
		for pair := plugins.Oldest(); pair != nil; pair = pair.Next() {
			if err := m.stagePlugin(pair.Key, pair.Value); err != nil {
				return err
			}
		}
	}

	return nil
}

// ensureOwnedDir creates the directory tree if absent and assigns the
// configured owner and group. Existing directories are left in place apart
// from the ownership correction.
func (m *Materializer) ensureOwnedDir(dir string) error {
	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "cannot create directory %s", dir)
	}
	if err := m.owner.Chown(dir, m.params.Identity.User, m.params.Identity.Group); err != nil {
		return err
	}
	m.log.V(1).Info("ensured directory", "path", dir)
	return nil
}

// renderConfig renders the template for name into the configuration
// directory, overwriting any previous file, and assigns ownership.
func (m *Materializer) renderConfig(name, tag string) error {
	data, err := m.render.Render(name, tag, m.params)
	if err != nil {
		return err
	}

	dest := path.Join(m.params.Directories.Conf, name)
	if err := vfs.WriteFile(m.fs, dest, data, 0o644); err != nil {
		return errors.Wrapf(err, "cannot write %s", dest)
	}
	if err := m.owner.Chown(dest, m.params.Identity.User, m.params.Identity.Group); err != nil {
		return err
	}
	m.log.V(1).Info("rendered configuration", "path", dest, "tag", tag)
	return nil
}

// appendLines appends each line to dest in sequence order, creating the file
// if absent. Lines are written verbatim, no deduplication or sorting.
func (m *Materializer) appendLines(dest string, lines []string) error {
	f, err := m.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "cannot open %s for append", dest)
	}
	defer f.Close()

	for _, line := range lines {
		if _, err := f.Write([]byte(line + "\n")); err != nil {
			return errors.Wrapf(err, "cannot append to %s", dest)
		}
	}
	m.log.V(1).Info("appended configuration lines", "path", dest, "lines", len(lines))
	return nil
}

// stagePlugin copies the named artifacts from the plugin source directory
// into <pluginTarget>/<name>, overwriting same-named files and preserving
// mode and modification time.
func (m *Materializer) stagePlugin(name string, artifacts []string) error {
	destDir := path.Join(m.params.Directories.PluginTarget, name)
	ok, err := vfs.DirExists(m.fs, destDir)
	if err != nil {
		return errors.Wrapf(err, "cannot stat plugin directory %s", destDir)
	}
	if !ok {
		if err := m.fs.Mkdir(destDir, 0o755); err != nil {
			return errors.Wrapf(err, "cannot create plugin directory %s", destDir)
		}
	}

	for _, artifact := range artifacts {
		src := path.Join(m.params.Directories.PluginSource, artifact)
		if err := m.copyFile(src, path.Join(destDir, artifact)); err != nil {
			return err
		}
	}
	m.log.V(1).Info("staged plugin", "plugin", name, "artifacts", len(artifacts))
	return nil
}

func (m *Materializer) copyFile(src, dst string) error {
	info, err := m.fs.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "missing plugin artifact %s", src)
	}
	data, err := vfs.ReadFile(m.fs, src)
	if err != nil {
		return errors.Wrapf(err, "cannot read plugin artifact %s", src)
	}

	if err := vfs.WriteFile(m.fs, dst, data, info.Mode()); err != nil {
		return errors.Wrapf(err, "cannot write plugin artifact %s", dst)
	}
	// WriteFile only applies the mode on creation; force it for overwrites.
	if err := m.fs.Chmod(dst, info.Mode()); err != nil {
		return errors.Wrapf(err, "cannot set mode on %s", dst)
	}
	if err := m.fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return errors.Wrapf(err, "cannot set times on %s", dst)
	}
	return nil
}
