// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kiln-ml/kiln/internal/artifact"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect PATH",
		Short: "Show the endpoints and variables of a bundle",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectHandler,
	}
}

func inspectHandler(cmd *cobra.Command, args []string) error {
	bundle, err := artifact.Read(args[0])
	if err != nil {
		return err
	}
	m := bundle.Manifest

	fmt.Printf("Artifact:   %s\n", m.ArtifactID)
	fmt.Printf("Created:    %s\n", m.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Root:       %s\n", m.RootType)
	fmt.Printf("Format:     v%d (kiln %s)\n", m.FormatVersion, m.KilnVersion)
	fmt.Println()

	fmt.Println("Endpoints:")
	endpoints := tablewriter.NewWriter(os.Stdout)
	endpoints.SetHeader([]string{"NAME", "ARGS", "SIGNATURE", "VARIABLES"})
	endpoints.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	endpoints.SetAlignment(tablewriter.ALIGN_LEFT)
	endpoints.SetHeaderLine(false)
	endpoints.SetBorder(false)
	endpoints.SetNoWhiteSpace(true)
	endpoints.SetTablePadding("    ")
	for _, e := range bundle.Endpoints {
		specs := make([]string, len(e.Graph.Signature))
		for i, a := range e.Graph.Signature {
			specs[i] = fmt.Sprintf("%v %s", []int(a.Shape), a.DType)
		}
		endpoints.Append([]string{
			e.Name,
			fmt.Sprintf("%d", len(e.Graph.Signature)),
			strings.Join(specs, ", "),
			fmt.Sprintf("%d", len(e.VarKeys)),
		})
	}
	endpoints.Render()
	fmt.Println()

	fmt.Println("Variables:")
	vars := tablewriter.NewWriter(os.Stdout)
	vars.SetHeader([]string{"KEY", "NAME", "DTYPE", "SHAPE", "BYTES"})
	vars.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	vars.SetAlignment(tablewriter.ALIGN_LEFT)
	vars.SetHeaderLine(false)
	vars.SetBorder(false)
	vars.SetNoWhiteSpace(true)
	vars.SetTablePadding("    ")
	for _, v := range bundle.Variables {
		vars.Append([]string{
			fmt.Sprintf("%d", v.Key),
			v.Name,
			v.StoredDType.String(),
			fmt.Sprintf("%v", []int(v.Value.Shape())),
			fmt.Sprintf("%d", v.StoredSize),
		})
	}
	vars.Render()
	return nil
}
