// Package cfgbuild partitions a function's entry stream into basic blocks
// and links them into a control-flow graph, including recognition of
// table-based and variadic-dispatch indirect jumps (spec §4.3).
package cfgbuild

import (
	"fmt"

	"github.com/maocore/mao/ir"
)

// BasicBlock is a maximal straight-line run of entries with a single entry
// point and a single exit point, plus its CFG successor/predecessor edges.
type BasicBlock struct {
	Name  string
	First, Last *ir.Entry

	Preds, Succs []*BasicBlock

	HasDataDirectives       bool
	ChainedIndirectJumpTarget bool

	id int
}

func (b *BasicBlock) String() string {
	return fmt.Sprintf("BB<%s>", b.Name)
}

// AddEntry appends e to b, tracking b's First/Last span. e must already be
// linked into the function's entry stream in the expected order.
func (b *BasicBlock) AddEntry(e *ir.Entry) {
	if b.First == nil {
		b.First = e
	}
	b.Last = e
}

// addEdge links b -> s, and s's predecessor list back to b, skipping
// duplicate edges.
func addEdge(b, s *BasicBlock) {
	for _, x := range b.Succs {
		if x == s {
			return
		}
	}
	b.Succs = append(b.Succs, s)
	s.Preds = append(s.Preds, b)
}

// Stats counts the recoverable anomalies encountered while building a CFG
// (spec §7 kind 3): they never abort construction, only degrade precision.
type Stats struct {
	NumExternalJumps   int
	NumUnresolvedJumps int
	NumJumpTables      int
	NumVariadicDispatches int
	NumTailCalls       int
}

// CFG is a function's control-flow graph: a Source and Sink sentinel plus
// every basic block created while building it, whether or not it is
// reachable from Source.
type CFG struct {
	Function *ir.Function
	Source   *BasicBlock
	Sink     *BasicBlock

	Blocks      []*BasicBlock
	labelToBB   map[string]*BasicBlock
	jumpTableCache map[string][]string

	Stats Stats

	nextID int
}

// GetCFG returns the cached CFG for f, building it with conservative=true
// if none is cached yet.
func GetCFG(f *ir.Function) *CFG {
	if v, ok := f.GetCache("cfg"); ok {
		return v.(*CFG)
	}
	c := Build(f, true)
	f.SetCache("cfg", c)
	return c
}

// IsWellFormed reports whether c can be safely consumed by passes that
// require a complete graph. It returns false for a nil CFG and for a
// function with entries whose Source block has no successor, and true
// otherwise. It does not check that every block reaches the sink, that
// every control transfer has resolved targets or is counted in Stats, or
// that edges only reference blocks in Blocks.
func (c *CFG) IsWellFormed() bool {
	if c == nil {
		return false
	}
	if c.Function.First != nil && len(c.Source.Succs) == 0 {
		return false
	}
	return true
}

func (c *CFG) newBlock(name string) *BasicBlock {
	c.nextID++
	b := &BasicBlock{Name: name, id: c.nextID}
	c.Blocks = append(c.Blocks, b)
	return b
}
