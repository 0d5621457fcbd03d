package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-annotator/internal/utils"
	"github.com/menta2k/image-annotator/pkg/cropper"
	"github.com/menta2k/image-annotator/pkg/processing"
)

func setupCropsCommand(a *app) *cobra.Command {
	var (
		outDir  string
		padding float64
		aspect  string
		size    int
		format  string
	)

	cmd := &cobra.Command{
		Use:   "crops [image...]",
		Short: "Cut every saved box out as an image patch",
		Long: `Cut the saved boxes out of the named images, or out of every image when none
is given. Patches are grouped by label: <out>/<label>/<image>_<box>.<format>.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ratio, err := cropper.ParseAspectRatio(aspect)
			if err != nil {
				return err
			}
			if padding < 0 {
				return fmt.Errorf("padding must not be negative")
			}
			c := cropper.NewWithConfig(cropper.CropConfig{PaddingRatio: padding, AspectRatio: ratio, Size: size})

			images, err := a.sync(ctx)
			if err != nil {
				return err
			}
			targets, err := selectImages(images, args)
			if err != nil {
				return err
			}
			format = processing.NormalizeFormat(format)
			proc := a.annotator.Processor()

			written := 0
			for _, img := range targets {
				patches, err := a.annotator.Crops(ctx, img.ID, c)
				if err != nil {
					return err
				}
				for _, p := range patches {
					path := patchPath(outDir, img.Name, p, format)
					if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
						return err
					}
					if err := proc.SaveImage(p.Image, path, format, a.cfg.Render.Quality, false); err != nil {
						return err
					}
					written++
				}
			}
			a.logger.Info("patches written", "images", len(targets), "patches", written, "dir", outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "crops", "output directory")
	cmd.Flags().Float64Var(&padding, "padding", 0.1, "padding on each side as a fraction of the box size")
	cmd.Flags().StringVar(&aspect, "aspect", "box", "patch shape: box|square|portrait|landscape|widescreen")
	cmd.Flags().IntVar(&size, "size", 0, "fit patches into size x size pixels (0 keeps the natural size)")
	cmd.Flags().StringVar(&format, "format", "png", "output format: png|jpg|webp")
	return cmd
}

// patchPath places a patch under its label directory, named after the image and box.
func patchPath(outDir, imageName string, p cropper.Patch, format string) string {
	base := filepath.Base(imageName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := utils.SanitizeFilename(base + "_" + p.BoxID)
	return utils.GenerateOutputFilename(name, filepath.Join(outDir, utils.SanitizeFilename(p.Label)), "", "", format)
}
