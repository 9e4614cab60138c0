// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiln-ml/kiln/internal/artifact"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify PATH",
		Short: "Verify a bundle's integrity",
		Long: `Verify checks the bundle's manifest, the variable table checksum and
every graph definition, and reports the first problem found.`,
		Args: cobra.ExactArgs(1),
		RunE: verifyHandler,
	}
}

func verifyHandler(cmd *cobra.Command, args []string) error {
	bundle, err := artifact.Read(args[0])
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	fmt.Printf("ok: %d endpoint(s), %d variable(s), artifact %s\n",
		len(bundle.Endpoints), len(bundle.Variables), bundle.Manifest.ArtifactID)
	return nil
}
