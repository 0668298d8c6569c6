package strategy

import (
	"testing"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/stretchr/testify/assert"
)

func TestCustomStrategyDelegatesToLocateFn(t *testing.T) {
	released := false
	c := &CustomStrategy{
		Name: "always-first",
		LocateFn: func(nodes []*node.Node, key []byte, maxReplicas int) []uint64 {
			if len(nodes) == 0 {
				return nil
			}
			return []uint64{nodes[0].ID}
		},
		Release: func() { released = true },
	}
	assert.Equal(t, CustomKind, c.Kind())

	nodes := makeNodes(3)
	c.Rebuild(nodes)
	assert.Equal(t, []uint64{nodes[0].ID}, c.Locate([]byte("x"), 1))

	c.Release()
	assert.True(t, released)
}

func TestCustomStrategyNilLocateFnReturnsNil(t *testing.T) {
	c := &CustomStrategy{}
	c.Rebuild(makeNodes(2))
	assert.Nil(t, c.Locate([]byte("x"), 1))
}
