// gc.go — tracing mark-sweep collector with a toggling mark bit
//
// WHAT THIS FILE DOES
// ===================
// Every heap-allocated AST node and every Environment frame in this
// interpreter is owned by exactly one Collector. Nothing else frees these
// objects; they live until a collection sweeps them.
//
// The collector never walks an "ownership graph" to find garbage. Instead
// it keeps a flat list of every object it has ever registered and answers
// the question "is this object still needed" by asking whether the
// object's mark bit currently agrees with the collector's own bit. Before
// a collection, the evaluator marks everything reachable from the active
// environment (its bindings, its stack roots, and its parent chain up to
// the global environment) by flipping those objects' bits to match the
// collector's current bit. Cached last-evaluation pointers are not
// followed when marking. collect() then deletes every object whose bit
// disagrees, and flips its own bit — which silently "unmarks" every
// survivor without having to touch them again.
//
// Dependencies
// ------------
// Packages that hold GC-owned data (ast, env) implement Markable and call
// Register at construction time. The evaluator (eval package) is the only
// caller of Mark and Collect; it decides when a collection is warranted by
// consulting NewObjectsSinceCollect.
package gc

// Markable is implemented by every object the collector owns: AST
// expression nodes and environment frames. MarkChildren must call
// Collector.Mark on every direct child reference so the mark recurses.
type Markable interface {
	markBit() bool
	setMarkBit(bool)
	MarkChildren(c *Collector)
}

// Header is embedded by every Markable implementation to provide the mark
// bit storage. It is not itself a Markable; embedders must add
// MarkChildren.
type Header struct {
	mark bool
}

func (h *Header) markBit() bool      { return h.mark }
func (h *Header) setMarkBit(b bool)  { h.mark = b }

// Collector owns every registered object and performs mark-sweep
// collection using a toggling mark bit rather than clearing bits on every
// sweep.
type Collector struct {
	bit             bool
	objects         []Markable
	newSinceCollect int
}

// New returns a fresh collector with no registered objects.
func New() *Collector {
	return &Collector{bit: true}
}

// Register adds o to the set of objects this collector owns. The object
// starts out unmarked relative to the collector's current bit, so it will
// be reclaimed by the next Collect unless something roots it first.
func (c *Collector) Register(o Markable) {
	o.setMarkBit(!c.bit)
	c.objects = append(c.objects, o)
	c.newSinceCollect++
}

// Mark marks o (if not nil and not already marked) and recurses into its
// children. Safe to call repeatedly on shared subtrees; already-marked
// objects are a no-op.
func (c *Collector) Mark(o Markable) {
	if o == nil {
		return
	}
	if o.markBit() == c.bit {
		return
	}
	o.setMarkBit(c.bit)
	o.MarkChildren(c)
}

// NewObjectsSinceCollect reports how many objects have been registered
// since the last Collect. The evaluator triggers a collection once this
// crosses its budget.
func (c *Collector) NewObjectsSinceCollect() int { return c.newSinceCollect }

// Collect deletes every object whose mark bit disagrees with the
// collector's current bit, then flips the collector's bit. Flipping the
// bit instantly "unmarks" every survivor for the next cycle without
// touching them.
func (c *Collector) Collect() {
	kept := c.objects[:0]
	for _, o := range c.objects {
		if o.markBit() == c.bit {
			kept = append(kept, o)
		}
	}
	c.objects = kept
	c.bit = !c.bit
	c.newSinceCollect = 0
}

// Live returns the number of objects currently tracked by the collector
// (survivors of the last sweep plus anything registered since). Exposed
// for diagnostics and tests, not used by the evaluator's hot path.
func (c *Collector) Live() int { return len(c.objects) }
