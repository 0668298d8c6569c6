package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/ringplace/pkg/metrics"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Load the ring and serve its Prometheus metrics until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		r, err := loadRing(cmd)
		if err != nil {
			return err
		}

		collector := metrics.NewCollector(r)
		collector.Start()
		defer collector.Stop()

		http.Handle("/metrics", metrics.Handler())

		errCh := make(chan error, 1)
		go func() {
			if err := http.ListenAndServe(addr, nil); err != nil {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", addr)
		fmt.Println("Serving. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:9090", "Metrics HTTP listen address")
}
