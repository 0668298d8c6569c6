package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Inspect or drive the ring's current rebalance plan",
}

var rebalanceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active rebalance plan's progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRing(cmd)
		if err != nil {
			return err
		}

		plan := r.GetRebalancePlan()
		if plan == nil {
			fmt.Println("No active rebalance plan")
			return nil
		}

		completed, total := plan.Counts()
		fmt.Printf("Plan: %s (strategy=%s)\n", plan.ID, plan.Strategy)
		fmt.Printf("  Moves: %d/%d (%.1f%%)\n", completed, total, plan.Progress()*100)
		fmt.Printf("  Started: %v\n", plan.Started())
		fmt.Printf("  Done: %v\n", plan.Done())
		for i, mv := range plan.Moves {
			fmt.Printf("  [%d] node-%d -> node-%d range=(%d,%d] state=%s\n",
				i, mv.SourceNodeID, mv.TargetNodeID, mv.RangeStart, mv.RangeEnd, mv.State)
		}
		return nil
	},
}

var rebalanceCompleteCmd = &cobra.Command{
	Use:   "complete INDEX",
	Short: "Mark one move of the active plan completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		r, err := loadRing(cmd)
		if err != nil {
			return err
		}

		if err := r.CompleteMove(idx); err != nil {
			return fmt.Errorf("complete move: %w", err)
		}
		fmt.Printf("Move %d marked completed\n", idx)
		return nil
	},
}

var rebalanceFailCmd = &cobra.Command{
	Use:   "fail INDEX",
	Short: "Mark one move of the active plan failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		r, err := loadRing(cmd)
		if err != nil {
			return err
		}

		if err := r.FailMove(idx); err != nil {
			return fmt.Errorf("fail move: %w", err)
		}
		fmt.Printf("Move %d marked failed\n", idx)
		return nil
	},
}

var rebalanceCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the active rebalance plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRing(cmd)
		if err != nil {
			return err
		}

		r.CancelRebalance()
		fmt.Println("Rebalance plan cancelled")
		return nil
	},
}

func parseIndex(s string) (int, error) {
	var idx int
	if _, err := fmt.Sscanf(s, "%d", &idx); err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", s, err)
	}
	return idx, nil
}

func init() {
	rebalanceCmd.AddCommand(rebalanceStatusCmd)
	rebalanceCmd.AddCommand(rebalanceCompleteCmd)
	rebalanceCmd.AddCommand(rebalanceFailCmd)
	rebalanceCmd.AddCommand(rebalanceCancelCmd)
}
