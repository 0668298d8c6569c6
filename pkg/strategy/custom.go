package strategy

import "github.com/cuemby/ringplace/pkg/node"

// CustomStrategy lets a caller supply its own placement algorithm
// without forking the ring (spec §4.4.6, §9). The ring calls these hooks
// in place of a built-in strategy's; Release, if set, runs once when the
// owning ring is discarded, matching the C source's ownership-via-
// release-hook model ("the engine retains ownership of the record only
// insofar as it must call the release hook at ring destruction").
type CustomStrategy struct {
	Name string

	LocateFn func(nodes []*node.Node, key []byte, maxReplicas int) []uint64

	// PreferenceOrderFn is optional and is not called by the ring: the
	// resolver always uses LocateFn's ordering, whether or not this is set.
	PreferenceOrderFn func(nodes []*node.Node, key []byte) []uint64

	Release func()

	nodes []*node.Node
	dirty bool
}

func (c *CustomStrategy) Kind() Kind    { return CustomKind }
func (c *CustomStrategy) MarkDirty()    { c.dirty = true }
func (c *CustomStrategy) IsDirty() bool { return c.dirty }

func (c *CustomStrategy) Rebuild(nodes []*node.Node) {
	c.nodes = append([]*node.Node(nil), nodes...)
	c.dirty = false
}

func (c *CustomStrategy) Locate(key []byte, maxReplicas int) []uint64 {
	if c.LocateFn == nil {
		return nil
	}
	return c.LocateFn(c.nodes, key, maxReplicas)
}
