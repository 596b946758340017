// Package manifest declares library modules in HCL files.
//
//	module "turtle" {
//	  value = "in the sun"
//	}
//
//	module "rider" {
//	  depends_on = ["turtle"]
//	  factory    = "format"
//	  args       = { format = "rider rides %s" }
//	}
//
// A module either has a literal value or names a factory from a
// FactoryTable. Its dependencies are the depends_on names followed by one
// collective per collective block, in the order they appear.
package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/km-arc/go-library/framework/library"
)

// hclFile is the top-level structure of a manifest for decoding.
type hclFile struct {
	Modules []*hclModule `hcl:"module,block"`
}

type hclModule struct {
	Name        string           `hcl:"name,label"`
	Value       *cty.Value       `hcl:"value,optional"`
	DependsOn   []string         `hcl:"depends_on,optional"`
	Factory     string           `hcl:"factory,optional"`
	Args        *cty.Value       `hcl:"args,optional"`
	Collectives []*hclCollective `hcl:"collective,block"`
}

type hclCollective struct {
	Name     string     `hcl:"name,label"`
	Template *cty.Value `hcl:"template,optional"`
}

// File is a decoded manifest.
type File struct {
	Filename string
	Modules  []Module
}

// Module is one module block.
type Module struct {
	Name        string
	DependsOn   []string
	Factory     string
	Args        map[string]any
	Value       any
	HasValue    bool
	Collectives []Collective
}

// Collective is a named collective template inside a module block.
type Collective struct {
	Name     string
	Template any
}

// Dependencies returns the library dependencies the module is defined with.
func (m Module) Dependencies() []library.Dependency {
	deps := library.Names(m.DependsOn...)
	for _, c := range m.Collectives {
		deps = append(deps, library.Collective(c.Template))
	}
	return deps
}

// ManifestError reports a module that cannot be turned into a definition.
type ManifestError struct {
	Filename string
	Module   string
	Err      error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest: %s: module %q: %v", e.Filename, e.Module, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// Parse decodes manifest source. filename is only used in diagnostics.
func Parse(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: failed to parse %s: %w", filename, diags)
	}
	return decode(f, filename)
}

// LoadFile reads and decodes the manifest at path.
func LoadFile(path string) (*File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: failed to parse %s: %w", path, diags)
	}
	return decode(f, path)
}

func decode(f *hcl.File, filename string) (*File, error) {
	var parsed hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("manifest: failed to decode %s: %w", filename, diags)
	}

	out := &File{Filename: filename, Modules: make([]Module, 0, len(parsed.Modules))}
	seen := make(map[string]bool, len(parsed.Modules))
	for _, pm := range parsed.Modules {
		m, err := newModule(pm)
		if err != nil {
			return nil, &ManifestError{Filename: filename, Module: pm.Name, Err: err}
		}
		if seen[m.Name] {
			return nil, &ManifestError{Filename: filename, Module: pm.Name,
				Err: fmt.Errorf("declared more than once")}
		}
		seen[m.Name] = true
		out.Modules = append(out.Modules, m)
	}
	return out, nil
}

func newModule(pm *hclModule) (Module, error) {
	m := Module{
		Name:      pm.Name,
		DependsOn: pm.DependsOn,
		Factory:   pm.Factory,
	}

	if pm.Value != nil {
		v, err := ctyToNative(*pm.Value)
		if err != nil {
			return Module{}, fmt.Errorf("value: %w", err)
		}
		m.Value, m.HasValue = v, true
	}

	switch {
	case m.HasValue && m.Factory != "":
		return Module{}, fmt.Errorf("value and factory %q are mutually exclusive", m.Factory)
	case !m.HasValue && m.Factory == "":
		return Module{}, fmt.Errorf("needs either a value or a factory")
	}

	if pm.Args != nil {
		v, err := ctyToNative(*pm.Args)
		if err != nil {
			return Module{}, fmt.Errorf("args: %w", err)
		}
		args, ok := v.(map[string]any)
		if !ok && v != nil {
			return Module{}, fmt.Errorf("args must be an object, got %T", v)
		}
		m.Args = args
	}

	for _, c := range pm.Collectives {
		var tmpl any
		if c.Template != nil {
			v, err := ctyToNative(*c.Template)
			if err != nil {
				return Module{}, fmt.Errorf("collective %q: %w", c.Name, err)
			}
			tmpl = v
		}
		m.Collectives = append(m.Collectives, Collective{Name: c.Name, Template: tmpl})
	}
	return m, nil
}

// Apply defines every module of the manifest in lib, building factories
// from table. Nothing is defined if any module is invalid.
func (f *File) Apply(lib *library.Library, table FactoryTable) error {
	type definition struct {
		module  Module
		factory library.Factory
	}

	defs := make([]definition, 0, len(f.Modules))
	for _, m := range f.Modules {
		name := m.Factory
		if m.HasValue {
			name = "value"
		}
		build, ok := table[name]
		if !ok {
			return &ManifestError{Filename: f.Filename, Module: m.Name,
				Err: fmt.Errorf("unknown factory %q (known: %v)", name, table.Names())}
		}
		factory, err := build(m)
		if err != nil {
			return &ManifestError{Filename: f.Filename, Module: m.Name, Err: err}
		}
		defs = append(defs, definition{module: m, factory: factory})
	}

	for _, d := range defs {
		if _, err := lib.Define(d.module.Name, d.module.Dependencies(), d.factory); err != nil {
			return &ManifestError{Filename: f.Filename, Module: d.module.Name, Err: err}
		}
	}
	lib.Logger().Debug("applied manifest", "file", f.Filename, "modules", len(defs))
	return nil
}
