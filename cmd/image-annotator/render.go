package main

import (
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/image-annotator/internal/store"
	"github.com/menta2k/image-annotator/internal/utils"
	"github.com/menta2k/image-annotator/pkg/processing"
)

func setupRenderCommand(a *app) *cobra.Command {
	var (
		outDir  string
		format  string
		quality int
		labels  bool
	)

	cmd := &cobra.Command{
		Use:   "render [image...]",
		Short: "Draw the saved boxes over each image",
		Long:  "Draw the saved boxes over the named images, or over every image when none is given.",
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
			if err := utils.EnsureDir(outDir); err != nil {
				return err
			}

			if !cmd.Flags().Changed("format") {
				format = a.cfg.Render.Format
			}
			if !cmd.Flags().Changed("quality") {
				quality = a.cfg.Render.Quality
			}
			if !cmd.Flags().Changed("labels") {
				labels = a.cfg.Render.ShowLabels
			}
			format = processing.NormalizeFormat(format)
			proc := a.annotator.Processor()

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(runtime.NumCPU())
			for _, img := range targets {
				g.Go(func() error {
					rendered, err := a.annotator.Render(gctx, img.ID, processing.OverlayOptions{ShowLabels: labels})
					if err != nil {
						return err
					}
					path := utils.GenerateOutputFilename(utils.SanitizeFilename(img.Name), outDir, "", "_annotated", format)
					if err := proc.SaveImage(rendered, path, format, quality, false); err != nil {
						return err
					}
					a.logger.Info("overlay written", "image", img.Name, "path", path, "boxes", img.AnnotationCount)
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "out", "output directory")
	cmd.Flags().StringVar(&format, "format", "png", "output format: png|jpg|webp")
	cmd.Flags().IntVar(&quality, "quality", 90, "jpg/webp quality (1-100)")
	cmd.Flags().BoolVar(&labels, "labels", true, "draw box labels")
	return cmd
}

// selectImages returns the images named by refs, or all images when refs is empty.
func selectImages(images []store.ImageSummary, refs []string) ([]store.ImageSummary, error) {
	if len(refs) == 0 {
		return images, nil
	}
	out := make([]store.ImageSummary, 0, len(refs))
	for _, ref := range refs {
		img, err := findImage(images, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}
