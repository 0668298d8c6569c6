package main

import (
	"fmt"

	"github.com/cuemby/ringplace/pkg/ring"
	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate KEY",
	Short: "Resolve the primary and replica nodes for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyspace, _ := cmd.Flags().GetString("keyspace")

		r, err := loadRing(cmd)
		if err != nil {
			return err
		}

		var placement *ring.Placement
		if keyspace == "" {
			placement, err = r.Locate([]byte(args[0]))
		} else {
			placement, err = r.LocateWithKeyspace(keyspace, []byte(args[0]))
		}
		if err != nil {
			return fmt.Errorf("locate: %w", err)
		}

		replicaIDs := make([]uint64, len(placement.Replicas))
		for i, n := range placement.Replicas {
			replicaIDs[i] = n.ID
		}

		fmt.Printf("Key: %s\n", args[0])
		fmt.Printf("  Hash: %d\n", placement.HashValue)
		fmt.Printf("  Primary: node-%d\n", placement.Primary.ID)
		fmt.Printf("  Replicas: %v\n", replicaIDs)
		fmt.Printf("  Healthy: %d\n", placement.HealthyCount)
		return nil
	},
}

func init() {
	locateCmd.Flags().String("keyspace", "", "Resolve within this keyspace's overridden strategy/quorum/rules")
}
