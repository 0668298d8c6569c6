package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/ringplace/pkg/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
apiVersion: ringplace/v1
kind: Ring
ring:
  name: cache-ring
  strategy: ketama
  hashSeed: 7
  expectedNodeCount: 4
  quorum:
    replicaCount: 3
    level: quorum
  affinityRules:
    - level: rack
      minSpread: 3
      required: true
  nodes:
    - id: 1
      name: node-1
      location:
        rackID: 1
        dcID: 1
      weight: 1
      initialState: up
    - id: 2
      name: node-2
      location:
        rackID: 2
        dcID: 1
      weight: 1
      initialState: up
  keyspaces:
    - name: analytics
      quorum:
        replicaCount: 1
        level: one
`

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesManifest(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cache-ring", f.Ring.Name)
	assert.Len(t, f.Ring.Nodes, 2)
	assert.Len(t, f.Ring.Keyspaces, 1)
}

func TestToRingConfigTranslatesStrategyAndQuorum(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	f, err := Load(path)
	require.NoError(t, err)

	cfg, err := f.ToRingConfig()
	require.NoError(t, err)
	assert.Equal(t, strategy.Ketama, cfg.StrategyType)
	assert.Equal(t, 3, cfg.DefaultQuorum.ReplicaCount)
	assert.Len(t, cfg.AffinityRules, 1)
}

func TestApplyBuildsRingWithNodesAndKeyspaces(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	f, err := Load(path)
	require.NoError(t, err)

	r, errs := Apply(f)
	require.Empty(t, errs)
	assert.Equal(t, 2, r.NodeCount())
	ks, ok := r.GetKeyspace("analytics")
	require.True(t, ok)
	assert.Equal(t, 1, ks.Quorum.ReplicaCount)
}

func TestApplyRejectsUnknownStrategy(t *testing.T) {
	path := writeManifest(t, `
ring:
  name: bad
  strategy: not-a-strategy
`)
	f, err := Load(path)
	require.NoError(t, err)
	_, errs := Apply(f)
	assert.NotEmpty(t, errs)
}
