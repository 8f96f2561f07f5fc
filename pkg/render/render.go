// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

// Package render produces configuration file contents from named templates
// and the resolved parameter set. The materializer only depends on the
// Renderer interface; the shipped implementation works on the embedded
// template set or on a template directory supplied at invocation time.
package render

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"path"
	"text/template"

	"github.com/mandelsoft/goutils/errors"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// Renderer maps a destination base name plus an optional role tag to
// rendered configuration text.
type Renderer interface {
	Render(name, tag string, data any) ([]byte, error)
}

type fileRenderer struct {
	fsys fs.FS
	root string
}

// NewRenderer returns a Renderer backed by the embedded template set.
func NewRenderer() Renderer {
	return &fileRenderer{fsys: builtin, root: "templates"}
}

// NewDirRenderer returns a Renderer reading templates from dir instead of
// the embedded set. Template files carry the same names either way.
func NewDirRenderer(dir string) Renderer {
	return &fileRenderer{fsys: os.DirFS(dir), root: "."}
}

// Render looks up the template for name, tagged with tag when one is given.
// A tag selects the variant "<name>-<TAG>.tmpl"; there is no fallback to the
// untagged template, a missing variant is an error.
func (r *fileRenderer) Render(name, tag string, data any) ([]byte, error) {
	fname := name + ".tmpl"
	if tag != "" {
		fname = name + "-" + tag + ".tmpl"
	}

	tpl, err := template.New(fname).Funcs(funcMap()).ParseFS(r.fsys, path.Join(r.root, fname))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load template for %s (tag %q)", name, tag)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, "cannot render %s (tag %q)", name, tag)
	}
	return buf.Bytes(), nil
}
