// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

package params

import (
	"fmt"
	"strings"
)

// ValidationError describes a single invalid parameter field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator accumulates validation errors over a parameter set.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Required validates that a string field is not empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: "is required",
		})
	}
	return v
}

// AbsolutePath validates that a path field is absolute.
func (v *Validator) AbsolutePath(field, value string) *Validator {
	if value != "" && !strings.HasPrefix(value, "/") {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: "must be an absolute path",
		})
	}
	return v
}

// Port validates that a port number is in the valid range.
func (v *Validator) Port(field string, value int) *Validator {
	if value < 1 || value > 65535 {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", value),
		})
	}
	return v
}

// Errors returns the accumulated validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// Validate checks the parameter set for completeness. It returns a
// ValidationErrors value listing every violation, or nil.
func (p *ParameterSet) Validate() error {
	v := NewValidator()

	v.Required("directories.conf", p.Directories.Conf).
		AbsolutePath("directories.conf", p.Directories.Conf)
	v.Required("directories.catalog", p.Directories.Catalog).
		AbsolutePath("directories.catalog", p.Directories.Catalog)
	v.Required("directories.pid", p.Directories.Pid).
		AbsolutePath("directories.pid", p.Directories.Pid)
	v.Required("directories.log", p.Directories.Log).
		AbsolutePath("directories.log", p.Directories.Log)

	v.Required("identity.user", p.Identity.User)
	v.Required("identity.group", p.Identity.Group)

	v.Required("node.environment", p.Node.Environment)
	v.Required("node.id", p.Node.ID)
	v.Required("node.dataDir", p.Node.DataDir).
		AbsolutePath("node.dataDir", p.Node.DataDir)

	v.Required("site.coordinatorHost", p.Site.CoordinatorHost)
	v.Port("site.httpPort", p.Site.HTTPPort)

	// Plugin directories only matter when addon plugins are configured.
	if p.AddonPlugins != "" {
		v.Required("directories.pluginSource", p.Directories.PluginSource).
			AbsolutePath("directories.pluginSource", p.Directories.PluginSource)
		v.Required("directories.pluginTarget", p.Directories.PluginTarget).
			AbsolutePath("directories.pluginTarget", p.Directories.PluginTarget)
	}

	if errs := v.Errors(); errs.HasErrors() {
		return errs
	}
	return nil
}
