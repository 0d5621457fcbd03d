package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func setupImagesCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "images",
		Short: "List images with their annotation counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := a.sync(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(images)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tBOXES\tREVIEWED\tID")
			for _, img := range images {
				reviewed := "-"
				if img.ReviewedAt != nil {
					reviewed = img.ReviewedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%s\t%dx%d\t%d\t%s\t%s\n", img.Name, img.Width, img.Height, img.AnnotationCount, reviewed, img.ID)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
