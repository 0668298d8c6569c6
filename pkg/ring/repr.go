package ring

import "fmt"

// String implements the idiomatic Go replacement for the C source's
// DATAKIT_TEST-gated clusterRingRepr debug helper.
func (r *Ring) String() string {
	return fmt.Sprintf("ring(%s, v%d, nodes=%d, healthy=%d)", r.name, r.version, r.registry.Count(), r.registry.HealthyCount())
}

// GoString gives a fuller, field-labeled repr for test failure output.
func (r *Ring) GoString() string {
	return fmt.Sprintf("ring.Ring{Name: %q, Version: %d, Strategy: %s, Nodes: %d, Healthy: %d}",
		r.name, r.version, r.strategyKind, r.registry.Count(), r.registry.HealthyCount())
}

// String gives a compact one-line repr of a resolved placement.
func (p *Placement) String() string {
	if p == nil {
		return "placement(nil)"
	}
	return fmt.Sprintf("placement(primary=%s, replicas=%d, hash=%#x)", p.Primary, len(p.Replicas), p.HashValue)
}

// GoString gives a fuller, field-labeled repr for test failure output.
func (p *Placement) GoString() string {
	if p == nil {
		return "ring.Placement(nil)"
	}
	ids := make([]uint64, len(p.Replicas))
	for i, n := range p.Replicas {
		ids[i] = n.ID
	}
	return fmt.Sprintf("ring.Placement{Primary: %d, Replicas: %v, HealthyCount: %d, HashValue: %#x, Keyspace: %q}",
		p.Primary.ID, ids, p.HealthyCount, p.HashValue, p.Keyspace)
}
