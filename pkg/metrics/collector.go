package metrics

import (
	"strconv"
	"time"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/ring"
)

// Collector polls a Ring's state and Stats snapshot on an interval and
// republishes them as Prometheus gauges.
type Collector struct {
	r      *ring.Ring
	stopCh chan struct{}
}

// NewCollector builds a Collector for r. Call Start to begin polling.
func NewCollector(r *ring.Ring) *Collector {
	return &Collector{r: r, stopCh: make(chan struct{})}
}

// Start begins collecting on a 15-second interval, matching the
// teacher's manager-metrics polling cadence.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts collection.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectNodeMetrics()
	c.collectRingMetrics()
	c.collectStatsMetrics()
}

func (c *Collector) collectNodeMetrics() {
	counts := make(map[node.State]int)
	c.r.EachNode(func(n *node.Node) bool {
		counts[n.State]++
		LoadDistribution.WithLabelValues(strconv.FormatUint(n.ID, 10)).Set(float64(n.Load.QueueDepth))
		return true
	})
	for state, count := range counts {
		NodesTotal.WithLabelValues(string(state)).Set(float64(count))
	}
}

func (c *Collector) collectRingMetrics() {
	RingVersion.Set(float64(c.r.Version()))
	KeyspacesTotal.Set(float64(c.r.KeyspaceCount()))
}

func (c *Collector) collectStatsMetrics() {
	s := c.r.Stats()
	LocateTotal.Set(float64(s.LocateCount))
	LocateDegradedTotal.Set(float64(s.LocateDegraded))
	LocateFailedTotal.Set(float64(s.LocateFailed))
	LocateLatencyP99Micros.Set(s.P99LatencyMicros())
	QuorumFailedTotal.Set(float64(s.QuorumFailedCount))
	RebalancePlansTotal.Set(float64(s.RebalancePlanCount))
	MovesCompletedTotal.Set(float64(s.MovesCompleted))
	MovesFailedTotal.Set(float64(s.MovesFailed))
}
