package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print ring-wide and cumulative locate/quorum/rebalance counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRing(cmd)
		if err != nil {
			return err
		}

		s := r.Stats()
		fmt.Printf("Ring: %s (version %d)\n", r.Name(), r.Version())
		fmt.Printf("  Nodes: %d (%d healthy)\n", r.NodeCount(), r.HealthyCount())
		fmt.Printf("  Keyspaces: %d\n", r.KeyspaceCount())
		fmt.Println()
		fmt.Printf("Locate:\n")
		fmt.Printf("  Total: %d\n", s.LocateCount)
		fmt.Printf("  Degraded: %d\n", s.LocateDegraded)
		fmt.Printf("  Failed: %d\n", s.LocateFailed)
		fmt.Printf("  p99 latency: %.1f us\n", s.P99LatencyMicros())
		fmt.Println()
		fmt.Printf("Quorum:\n")
		fmt.Printf("  Plan writes: %d\n", s.PlanWriteCount)
		fmt.Printf("  Plan reads: %d\n", s.PlanReadCount)
		fmt.Printf("  Failed: %d\n", s.QuorumFailedCount)
		fmt.Println()
		fmt.Printf("Rebalance:\n")
		fmt.Printf("  Plans created: %d\n", s.RebalancePlanCount)
		fmt.Printf("  Moves completed: %d\n", s.MovesCompleted)
		fmt.Printf("  Moves failed: %d\n", s.MovesFailed)
		return nil
	},
}
