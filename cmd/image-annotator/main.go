package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	imageannotator "github.com/menta2k/image-annotator"
)

// flags are the persistent overrides shared by every subcommand.
type flags struct {
	configPath string
	imagesDir  string
	driver     string
	dsn        string
	logLevel   string
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var f flags
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "image-annotator",
		Short:         "Draw, review and export box annotations for image datasets",
		Version:       imageannotator.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, f)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (json or yaml)")
	pf.StringVar(&f.imagesDir, "images", "", "directory of images to annotate")
	pf.StringVar(&f.driver, "db-driver", "", "annotation store driver: sqlite|postgres")
	pf.StringVar(&f.dsn, "dsn", "", "annotation store DSN or sqlite file")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug|info|warn|error")

	rootCmd.AddCommand(
		setupServeCommand(a),
		setupImagesCommand(a),
		setupExportCommand(a),
		setupImportCommand(a),
		setupReplayCommand(a),
		setupPrelabelCommand(a),
		setupRenderCommand(a),
		setupCropsCommand(a),
	)
	return rootCmd
}
