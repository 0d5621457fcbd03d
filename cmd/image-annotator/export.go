package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-annotator/internal/utils"
	"github.com/menta2k/image-annotator/pkg/codec"
)

func setupExportCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the export document for every image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.sync(cmd.Context()); err != nil {
				return err
			}
			doc, err := a.annotator.Export(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := codec.WriteDocument(w, doc); err != nil {
				return err
			}
			if out != "-" {
				a.logger.Info("export written", "path", out, "images", len(doc.Dataset))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "annotations.json", "output file, - for stdout")
	return cmd
}
