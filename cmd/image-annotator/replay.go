package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-annotator/pkg/codec"
	"github.com/menta2k/image-annotator/pkg/editor"
	"github.com/menta2k/image-annotator/pkg/geometry"
)

func setupReplayCommand(a *app) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "replay <script.json>",
		Short: "Apply a recorded list of editor actions",
		Long: "Replay a JSON array of editor actions over the image workspace and print the\n" +
			"resulting export document. Pointer actions use screen-space coordinates;\n" +
			`"next", "previous" and {"type":"image","image":<id or name>} switch images.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actions, err := readScript(args[0])
			if err != nil {
				return err
			}

			images, err := a.sync(ctx)
			if err != nil {
				return err
			}
			refs := make([]editor.ImageRef, 0, len(images))
			saved := make(map[string][]geometry.Box, len(images))
			for _, img := range images {
				refs = append(refs, editor.ImageRef{ID: img.ID, Name: img.Name, Width: img.Width, Height: img.Height})
				records, err := a.annotator.Records(ctx, img.ID)
				if err != nil {
					return err
				}
				saved[img.ID] = codec.Import(records)
			}

			w := editor.NewWorkspace(refs, saved,
				editor.WithLogger(a.logger),
				editor.WithObserver(a.metrics))
			touched := map[string]bool{}
			for i, act := range actions {
				if err := w.Apply(act); err != nil {
					return fmt.Errorf("action %d (%s): %w", i, act.Type, err)
				}
				if len(refs) > 0 {
					touched[w.Current().ID] = true
				}
			}

			collections := w.Collections()
			entries := make([]codec.Entry, 0, len(refs))
			for _, ref := range refs {
				info := codec.ImageInfo{ID: ref.ID, Name: ref.Name, Width: ref.Width, Height: ref.Height}
				entries = append(entries, codec.ExportEntry(info, collections[ref.ID]))
			}

			if save {
				for _, ref := range refs {
					if !touched[ref.ID] {
						continue
					}
					if _, err := a.annotator.SaveRecords(ctx, ref.ID, codec.Export(collections[ref.ID])); err != nil {
						return err
					}
				}
				a.logger.Info("replay saved", "images", len(touched))
			}
			return codec.WriteDocument(cmd.OutOrStdout(), codec.BuildDocument(entries...))
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "persist the boxes of every image the script visited")
	return cmd
}

func readScript(path string) ([]editor.Action, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		r = f
	}
	var actions []editor.Action
	if err := json.NewDecoder(r).Decode(&actions); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return actions, nil
}
