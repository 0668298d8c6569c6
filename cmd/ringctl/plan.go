package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan quorum-aware write/read sets for a key",
}

var planWriteCmd = &cobra.Command{
	Use:   "write KEY",
	Short: "Plan the write targets and sync/async split for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyspace, _ := cmd.Flags().GetString("keyspace")

		r, err := loadRing(cmd)
		if err != nil {
			return err
		}

		if keyspace == "" {
			set, err := r.PlanWrite([]byte(args[0]))
			if err != nil {
				return fmt.Errorf("plan write: %w", err)
			}
			fmt.Printf("Targets: %v\n", set.Targets)
			fmt.Printf("Sync required: %d\n", set.SyncRequired)
			fmt.Printf("Async allowed: %d\n", set.AsyncAllowed)
			return nil
		}

		set, err := r.PlanWriteWithKeyspace(keyspace, []byte(args[0]))
		if err != nil {
			return fmt.Errorf("plan write: %w", err)
		}
		fmt.Printf("Targets: %v\n", set.Targets)
		fmt.Printf("Sync required: %d\n", set.SyncRequired)
		fmt.Printf("Async allowed: %d\n", set.AsyncAllowed)
		return nil
	},
}

var planReadCmd = &cobra.Command{
	Use:   "read KEY",
	Short: "Plan the read targets, required responses, and read-repair hint for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyspace, _ := cmd.Flags().GetString("keyspace")

		r, err := loadRing(cmd)
		if err != nil {
			return err
		}

		if keyspace == "" {
			set, err := r.PlanRead([]byte(args[0]))
			if err != nil {
				return fmt.Errorf("plan read: %w", err)
			}
			fmt.Printf("Targets: %v\n", set.Targets)
			fmt.Printf("Required responses: %d\n", set.RequiredResponses)
			fmt.Printf("Read repair: %v\n", set.ReadRepair)
			return nil
		}

		set, err := r.PlanReadWithKeyspace(keyspace, []byte(args[0]))
		if err != nil {
			return fmt.Errorf("plan read: %w", err)
		}
		fmt.Printf("Targets: %v\n", set.Targets)
		fmt.Printf("Required responses: %d\n", set.RequiredResponses)
		fmt.Printf("Read repair: %v\n", set.ReadRepair)
		return nil
	},
}

func init() {
	planCmd.AddCommand(planWriteCmd)
	planCmd.AddCommand(planReadCmd)

	planWriteCmd.Flags().String("keyspace", "", "Plan within this keyspace's overridden quorum")
	planReadCmd.Flags().String("keyspace", "", "Plan within this keyspace's overridden quorum")
}
