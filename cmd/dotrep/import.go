package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dkoosis/dotrep/internal/config"
	"github.com/dkoosis/dotrep/internal/importer"
	"github.com/dkoosis/dotrep/internal/render"
)

func newImportCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags config.CliFlags
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import every report of the solution",
		Long:  "Index the sources below the base directory, then import the Roslyn reports, telemetry and test reports named by the configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.NoColorSet = cmd.Flags().Changed("no-color")
			cfg, err := config.ResolveConfig(flags)
			if err != nil {
				return usageError(err)
			}

			theme, err := render.LookupTheme(cfg.Output.Theme, cfg.Output.NoColor)
			if err != nil {
				return usageError(err)
			}
			r, err := render.New(cfg.Output.Format, theme, termWidth(stdout))
			if err != nil {
				return usageError(err)
			}

			log := newLogger(stderr, cfg.LogLevel, cfg.Output.NoColor)
			if cfg.ConfigFile != "" {
				log.Debugf("Using configuration file '%s'.", cfg.ConfigFile)
			}
			var opts []importer.Option
			if isTTYWriter(stderr) {
				opts = append(opts, importer.WithProgress(stderr))
			}
			sum, err := importer.New(cfg, log, opts...).Run(cmd.Context())
			if err != nil {
				return failed(err)
			}
			if err := r.Render(stdout, sum); err != nil {
				return failed(err)
			}
			if sum.Failed() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&flags.ConfigFile, "config", "c", "", "Configuration file (default .dotrep.yaml)")
	f.StringVarP(&flags.BaseDir, "base-dir", "d", "", "Solution base directory")
	f.StringVarP(&flags.Format, "format", "f", "", "Output format: terminal, json, sarif")
	f.StringVar(&flags.Theme, "theme", "", "Terminal theme: default, orca, mono")
	f.BoolVar(&flags.NoColor, "no-color", false, "Disable colors")
	f.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.IntVarP(&flags.Concurrency, "concurrency", "j", 0, "Reports parsed in parallel")
	return cmd
}
