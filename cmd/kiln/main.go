// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package main provides the kiln CLI for inspecting and verifying
// exported model bundles.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.1"

func main() {
	root := &cobra.Command{
		Use:          "kiln",
		Short:        "Inspect and verify exported model bundles",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	root.AddCommand(
		newInspectCmd(),
		newVerifyCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("kiln %s\n", version)
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
