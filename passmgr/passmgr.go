package passmgr

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pkg/errors"

	"github.com/maocore/mao/ir"
)

// UnitPassFunc runs once per Unit.
type UnitPassFunc func(u *ir.Unit, opts *OptionValues)

// FuncPassFunc runs once per Function.
type FuncPassFunc func(f *ir.Function, opts *OptionValues)

type passKind int

const (
	kindUnit passKind = iota
	kindFunc
)

type passDef struct {
	name        string
	description string
	kind        passKind
	optionDefs  []OptionDef
	options     *OptionValues
	unitFn      UnitPassFunc
	funcFn      FuncPassFunc
}

// Manager owns every registered pass and the order they were registered
// in — spec §5's "pass ordering is the order of registration".
type Manager struct {
	order []string
	passes map[string]passDef

	// ApplyToFuncs, when non-nil, restricts function passes to functions
	// whose name matches the regex (spec §6 apply_to_funcs filter).
	ApplyToFuncs *regexp.Regexp
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{passes: make(map[string]passDef)}
}

// RegisterUnitPass declares a pass that operates on the whole unit.
func (m *Manager) RegisterUnitPass(name, description string, optionDefs []OptionDef, fn UnitPassFunc) {
	ir.Assert(name != "", "passmgr: pass registered with empty name")
	_, dup := m.passes[name]
	ir.Assert(!dup, "passmgr: pass %q registered twice", name)

	m.passes[name] = passDef{name: name, description: description, kind: kindUnit, optionDefs: optionDefs, unitFn: fn}
	m.order = append(m.order, name)
}

// RegisterFuncPass declares a pass that operates per function.
func (m *Manager) RegisterFuncPass(name, description string, optionDefs []OptionDef, fn FuncPassFunc) {
	ir.Assert(name != "", "passmgr: pass registered with empty name")
	_, dup := m.passes[name]
	ir.Assert(!dup, "passmgr: pass %q registered twice", name)

	m.passes[name] = passDef{name: name, description: description, kind: kindFunc, optionDefs: optionDefs, funcFn: fn}
	m.order = append(m.order, name)
}

// Run invokes every registered pass, in registration order, against u.
// Unit passes run once; function passes run once per function in u,
// filtered by ApplyToFuncs when set.
func (m *Manager) Run(u *ir.Unit) {
	for _, name := range m.order {
		pd := m.passes[name]
		opts := pd.options
		if opts == nil {
			opts = newOptionValues(pd.optionDefs)
		}

		switch pd.kind {
		case kindUnit:
			pd.unitFn(u, opts)
		case kindFunc:
			for _, f := range u.Functions() {
				if m.ApplyToFuncs != nil && !m.ApplyToFuncs.MatchString(f.Name) {
					continue
				}
				pd.funcFn(f, opts)
			}
		}
	}
}

// PipelineConfig is the pass list plus per-pass option overrides read from
// a YAML file (config package). Repeated --mao flags do not build a
// PipelineConfig; ApplyMaoFlag applies each one to the pass options
// directly.
type PipelineConfig struct {
	Passes []PipelinePass
}

// PipelinePass names one pass to run and the raw option overrides to apply
// to it, in file/flag order.
type PipelinePass struct {
	Name    string
	Options map[string]string
}

// Configure applies a PipelineConfig: for every named pass, in order,
// overrides its options and appends it to the run order, replacing
// whatever order prior RegisterXPass calls established. Unknown pass names
// are a configuration error, not a fatal invariant violation.
func (m *Manager) Configure(cfg PipelineConfig) error {
	order := make([]string, 0, len(cfg.Passes))
	for _, p := range cfg.Passes {
		pd, ok := m.passes[p.Name]
		if !ok {
			return errors.Errorf("passmgr: pipeline names unknown pass %q", p.Name)
		}
		if pd.options == nil {
			pd.options = newOptionValues(pd.optionDefs)
		}
		for name, val := range p.Options {
			if err := pd.options.applyOverride(name, val, true); err != nil {
				return err
			}
		}
		m.passes[p.Name] = pd
		order = append(order, p.Name)
	}
	m.order = order
	return nil
}

// Fatalf reports a fatal diagnostic and terminates the process — the
// error-handling kind 1/2 surface (spec §7): invariant violations panic
// via ir.Assert, but driver-level setup failures (bad pipeline config, bad
// CLI flags) are reported this way instead, matching the teacher's
// main.go diagnostic style.
func Fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
