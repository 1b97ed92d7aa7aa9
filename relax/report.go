package relax

import (
	"os"
	"sort"

	"github.com/maocore/mao/ir"
)

// WriteSizeReport writes a JSON size report for section to path, one
// object per function giving its resolved byte size after relaxation.
// Adapted from the teacher's size_analysis.go manual JSON construction
// (no encoding/json dependency, same hand-rolled escaping and integer
// formatting), repurposed from per-backend compiled size to per-function
// relaxed assembly size.
func WriteSizeReport(path string, section *ir.Section, sizes map[*ir.Entry]int) error {
	funcTotals := make(map[string]int)
	var names []string

	for _, ss := range section.Subsections {
		e := ss.First
		if e == nil {
			continue
		}
		for {
			if e.Function != nil {
				if _, seen := funcTotals[e.Function.Name]; !seen {
					names = append(names, e.Function.Name)
				}
				funcTotals[e.Function.Name] += sizes[e]
			}
			if e == ss.Last {
				break
			}
			e = e.Next
		}
	}
	sort.Strings(names)

	buf := make([]byte, 0, 4096)
	buf = append(buf, '{', '"', 's', 'e', 'c', 't', 'i', 'o', 'n', '"', ':')
	buf = appendJSONString(buf, section.Name)
	buf = append(buf, ',', '"', 'f', 'u', 'n', 'c', 't', 'i', 'o', 'n', 's', '"', ':', '[')
	for i, name := range names {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '{', '"', 'n', 'a', 'm', 'e', '"', ':')
		buf = appendJSONString(buf, name)
		buf = append(buf, ',', '"', 's', 'i', 'z', 'e', '"', ':')
		buf = appendInt(buf, funcTotals[name])
		buf = append(buf, '}')
	}
	buf = append(buf, ']', '}', '\n')

	return os.WriteFile(path, buf, 0644)
}

func appendJSONString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			buf = append(buf, '\\')
		}
		buf = append(buf, c)
	}
	return append(buf, '"')
}

func appendInt(buf []byte, n int) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	neg := n < 0
	if neg {
		n = -n
	}
	start := len(buf)
	for n > 0 {
		buf = append(buf, byte('0'+n%10))
		n /= 10
	}
	if neg {
		buf = append(buf, '-')
	}
	// reverse the digits just appended
	for l, r := start, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return buf
}
