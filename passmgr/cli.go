package passmgr

import (
	"strings"

	"github.com/pkg/errors"
)

// rawOverride is one `opt` or `opt[val]` token of a `--mao` flag.
type rawOverride struct {
	name  string
	val   string
	hasVal bool
}

// parseMaoFlag parses one `--mao=NAME=opt1[val1],opt2[val2]` CLI token
// (spec §6) into the pass name it targets and the raw option overrides, in
// the order they appeared.
func parseMaoFlag(flag string) (passName string, overrides []rawOverride, err error) {
	eq := strings.IndexByte(flag, '=')
	if eq < 0 {
		return flag, nil, nil
	}
	passName = flag[:eq]
	rest := flag[eq+1:]
	if rest == "" {
		return passName, nil, nil
	}

	for _, tok := range strings.Split(rest, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if lb := strings.IndexByte(tok, '['); lb >= 0 {
			if !strings.HasSuffix(tok, "]") {
				return "", nil, errors.Errorf("passmgr: malformed option %q in --mao=%s", tok, flag)
			}
			overrides = append(overrides, rawOverride{name: tok[:lb], val: tok[lb+1 : len(tok)-1], hasVal: true})
		} else {
			overrides = append(overrides, rawOverride{name: tok})
		}
	}
	return passName, overrides, nil
}

// ApplyMaoFlag parses and applies a single `--mao=...` flag against m's
// registered passes, returning an error naming the malformed token or
// unknown pass/option rather than panicking — this is CLI input, a system
// boundary, unlike the internal option-declaration mismatches OptionValues
// treats as programmer error.
func (m *Manager) ApplyMaoFlag(flag string) error {
	passName, overrides, err := parseMaoFlag(flag)
	if err != nil {
		return err
	}
	pd, ok := m.passes[passName]
	if !ok {
		return errors.Errorf("passmgr: unknown pass %q", passName)
	}
	if pd.options == nil {
		pd.options = newOptionValues(pd.optionDefs)
		m.passes[passName] = pd
	}
	for _, o := range overrides {
		if err := pd.options.applyOverride(o.name, o.val, o.hasVal); err != nil {
			return err
		}
	}
	return nil
}
