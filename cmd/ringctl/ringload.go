package main

import (
	"fmt"

	"github.com/cuemby/ringplace/pkg/config"
	"github.com/cuemby/ringplace/pkg/ring"
	"github.com/spf13/cobra"
)

// loadRing reads the --manifest flag off cmd (walking up to the root
// command, since the flag is persistent) and builds a Ring from it.
func loadRing(cmd *cobra.Command) (*ring.Ring, error) {
	path, _ := cmd.Flags().GetString("manifest")
	f, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	r, errs := config.Apply(f)
	if len(errs) > 0 {
		return nil, fmt.Errorf("apply manifest: %v", errs[0])
	}
	return r, nil
}
