package main

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func setupPrelabelCommand(a *app) *cobra.Command {
	var (
		workers   int
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "prelabel [image...]",
		Short: "Store model suggestions as boxes",
		Long: "Ask the configured backend for boxes and store them after the existing ones.\n" +
			"Without arguments every image that has no boxes yet is pre-labeled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			images, err := a.sync(ctx)
			if err != nil {
				return err
			}
			targets, err := selectImages(images, args)
			if err != nil {
				return err
			}

			var added atomic.Int64
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(workers, 1))
			for _, img := range targets {
				if len(args) == 0 && img.AnnotationCount > 0 && !overwrite {
					continue
				}
				g.Go(func() error {
					if overwrite {
						if _, err := a.annotator.SaveRecords(gctx, img.ID, nil); err != nil {
							return err
						}
					}
					records, err := a.annotator.Prelabel(gctx, img.ID)
					if err != nil {
						return err
					}
					added.Add(int64(len(records)))
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d boxes suggested by %s\n", added.Load(), a.annotator.Backend().Name())
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 1, "images processed in parallel")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "discard existing boxes first")
	return cmd
}
