package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-annotator/pkg/codec"
)

func setupImportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <annotations.json>",
		Short: "Load boxes from an export document",
		Long: "Store the boxes of an export document, replacing the saved boxes of every image\n" +
			"it names. Images are matched by id, then by name; entries for unknown images are\n" +
			"skipped. Use - to read from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if _, err := a.sync(ctx); err != nil {
				return err
			}
			res, err := a.annotator.Import(ctx, doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d boxes into %d images\n", res.Boxes, len(res.Images))
			for _, name := range res.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped unknown image %s\n", name)
			}
			return nil
		},
	}
	return cmd
}

func readDocument(path string) (codec.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return codec.Document{}, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	return codec.ReadDocument(r)
}
