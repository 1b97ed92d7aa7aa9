// Package passmgr implements pass registration and the option system that
// spec §6 requires: unit passes, function passes, typed options with
// defaults, and parsing of the `--mao=NAME=opt1[val1],opt2[val2]`
// CLI option-string surface.
package passmgr

import (
	"strconv"

	"github.com/pkg/errors"
)

// OptionKind identifies one of the three option value types spec §6 names.
type OptionKind int

const (
	OptBool OptionKind = iota
	OptInt
	OptString
)

// OptionDef declares one option a pass accepts, with its default.
type OptionDef struct {
	Name    string
	Kind    OptionKind
	Default bool
	DefaultInt int
	DefaultStr string
}

// OptionValues holds the resolved option values for one pass invocation:
// CLI-supplied values layered over each OptionDef's default.
type OptionValues struct {
	defs   map[string]OptionDef
	bools  map[string]bool
	ints   map[string]int
	strs   map[string]string
}

func newOptionValues(defs []OptionDef) *OptionValues {
	v := &OptionValues{
		defs:  make(map[string]OptionDef, len(defs)),
		bools: make(map[string]bool),
		ints:  make(map[string]int),
		strs:  make(map[string]string),
	}
	for _, d := range defs {
		v.defs[d.Name] = d
		switch d.Kind {
		case OptBool:
			v.bools[d.Name] = d.Default
		case OptInt:
			v.ints[d.Name] = d.DefaultInt
		case OptString:
			v.strs[d.Name] = d.DefaultStr
		}
	}
	return v
}

// GetOptionBool returns the current value of a boolean option. Panics if
// name was not declared as a bool option — a pass querying an option it
// never declared is a programming error, not a recoverable one.
func (v *OptionValues) GetOptionBool(name string) bool {
	d, ok := v.defs[name]
	assertOption(ok && d.Kind == OptBool, name, "bool")
	return v.bools[name]
}

// GetOptionInt returns the current value of an integer option.
func (v *OptionValues) GetOptionInt(name string) int {
	d, ok := v.defs[name]
	assertOption(ok && d.Kind == OptInt, name, "int")
	return v.ints[name]
}

// GetOptionString returns the current value of a string option.
func (v *OptionValues) GetOptionString(name string) string {
	d, ok := v.defs[name]
	assertOption(ok && d.Kind == OptString, name, "string")
	return v.strs[name]
}

func assertOption(ok bool, name, kind string) {
	if !ok {
		panic(errors.Errorf("passmgr: option %q not declared as %s", name, kind))
	}
}

// applyOverride parses one `opt` or `opt[val]` token against v's
// declarations and overwrites the matching value.
func (v *OptionValues) applyOverride(name, rawVal string, hasVal bool) error {
	d, ok := v.defs[name]
	if !ok {
		return errors.Errorf("passmgr: unknown option %q", name)
	}
	switch d.Kind {
	case OptBool:
		if !hasVal {
			v.bools[name] = true
			return nil
		}
		b, err := strconv.ParseBool(rawVal)
		if err != nil {
			return errors.Wrapf(err, "passmgr: option %q expects a bool", name)
		}
		v.bools[name] = b
	case OptInt:
		if !hasVal {
			return errors.Errorf("passmgr: option %q requires a value", name)
		}
		n, err := strconv.Atoi(rawVal)
		if err != nil {
			return errors.Wrapf(err, "passmgr: option %q expects an int", name)
		}
		v.ints[name] = n
	case OptString:
		if !hasVal {
			return errors.Errorf("passmgr: option %q requires a value", name)
		}
		v.strs[name] = rawVal
	}
	return nil
}
