// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

// Package params holds the resolved deployment parameter set consumed by the
// configuration materializer. The set is produced once per agent invocation
// from a YAML parameter document (plus an optional merge-patch override
// document) and is read-only afterwards.
package params

import (
	"github.com/creasty/defaults"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/mandelsoft/goutils/errors"
	"github.com/mandelsoft/vfs/pkg/vfs"
	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"
)

// Directories are the filesystem locations materialized on the host. All of
// them are host-local; no path is shared between cluster nodes.
type Directories struct {
	// Conf receives config.properties, node.properties and jvm.config.
	Conf string `json:"conf" yaml:"conf" default:"/etc/presto/conf"`
	// Catalog receives one <name>.properties file per connector catalog.
	Catalog string `json:"catalog" yaml:"catalog" default:"/etc/presto/conf/catalog"`
	// Pid is the process-id directory of the launched server.
	Pid string `json:"pid" yaml:"pid" default:"/var/run/presto"`
	// Log is the server log directory.
	Log string `json:"log" yaml:"log" default:"/var/log/presto"`
	// PluginSource is where the deployment framework drops addon artifacts.
	PluginSource string `json:"pluginSource" yaml:"pluginSource" default:"/var/lib/presto/plugins"`
	// PluginTarget is the plugin root scanned by the server at startup.
	PluginTarget string `json:"pluginTarget" yaml:"pluginTarget" default:"/usr/lib/presto/plugin"`
}

// Identity is the unix user and group owning the materialized layout.
type Identity struct {
	User  string `json:"user" yaml:"user" default:"yarn"`
	Group string `json:"group" yaml:"group" default:"hadoop"`
}

// NodeProperties feeds the node.properties template.
type NodeProperties struct {
	Environment string `json:"environment" yaml:"environment" default:"presto"`
	// ID uniquely identifies this node within the cluster. Generated at load
	// time when the document leaves it empty.
	ID      string `json:"id" yaml:"id"`
	DataDir string `json:"dataDir" yaml:"dataDir" default:"/var/lib/presto/data"`
}

// SiteProperties feeds the config.properties templates.
type SiteProperties struct {
	CoordinatorHost       string `json:"coordinatorHost" yaml:"coordinatorHost" default:"localhost"`
	HTTPPort              int    `json:"httpPort" yaml:"httpPort" default:"8285"`
	QueryMaxMemory        string `json:"queryMaxMemory" yaml:"queryMaxMemory" default:"50GB"`
	QueryMaxMemoryPerNode string `json:"queryMaxMemoryPerNode" yaml:"queryMaxMemoryPerNode" default:"1GB"`
	IncludeCoordinator    bool   `json:"includeCoordinator" yaml:"includeCoordinator"`
}

// ParameterSet is the fully resolved configuration for one materializer run.
//
// The three serialized fields carry collection literals exactly as the
// upstream resolver emits them (flow- or block-style YAML/JSON, single quotes
// accepted). They stay undecoded here; the materializer decodes each one at
// the step that consumes it. An empty string means the field is absent and
// the corresponding step is skipped.
type ParameterSet struct {
	Directories Directories    `json:"directories" yaml:"directories"`
	Identity    Identity       `json:"identity" yaml:"identity"`
	Node        NodeProperties `json:"node" yaml:"node"`
	Site        SiteProperties `json:"site" yaml:"site"`

	// JVMArgs is a literal sequence of strings, one JVM flag each.
	JVMArgs string `json:"jvmArgs" yaml:"jvmArgs"`
	// CatalogProperties is a literal mapping from catalog name to a sequence
	// of property lines.
	CatalogProperties string `json:"catalogProperties" yaml:"catalogProperties"`
	// AddonPlugins is a literal mapping from plugin name to a sequence of
	// artifact filenames found under Directories.PluginSource.
	AddonPlugins string `json:"addonPlugins" yaml:"addonPlugins"`
}

// Load reads the parameter document at path, applies the optional override
// document as a JSON merge patch, fills defaults and validates the result.
// overridesPath may be empty.
func Load(fsys vfs.FileSystem, path, overridesPath string) (*ParameterSet, error) {
	doc, err := vfs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read parameter document %s", path)
	}

	if overridesPath != "" {
		doc, err = mergeOverrides(fsys, doc, overridesPath)
		if err != nil {
			return nil, err
		}
	}

	p := &ParameterSet{}
	if err := defaults.Set(p); err != nil {
		return nil, errors.Wrapf(err, "cannot apply parameter defaults")
	}
	// yaml.v3 only touches fields present in the document, so the defaults
	// set above survive for everything the document omits.
	if err := yamlv3.Unmarshal(doc, p); err != nil {
		return nil, errors.Wrapf(err, "cannot parse parameter document %s", path)
	}

	if p.Node.ID == "" {
		p.Node.ID = uuid.NewString()
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// mergeOverrides applies the override document as an RFC 7386 merge patch on
// top of the base document. Both documents may be YAML; the merged result is
// JSON, which the YAML parser accepts unchanged.
func mergeOverrides(fsys vfs.FileSystem, doc []byte, overridesPath string) ([]byte, error) {
	patch, err := vfs.ReadFile(fsys, overridesPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read override document %s", overridesPath)
	}

	docJSON, err := yaml.YAMLToJSON(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot convert parameter document")
	}
	patchJSON, err := yaml.YAMLToJSON(patch)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot convert override document %s", overridesPath)
	}

	merged, err := jsonpatch.MergePatch(docJSON, patchJSON)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot apply override document %s", overridesPath)
	}
	return merged, nil
}
