package main

import (
	"github.com/spf13/cobra"

	"github.com/lvillar/pdfgen/assets"
	"github.com/lvillar/pdfgen/document"
	"github.com/lvillar/pdfgen/internal/config"
	"github.com/lvillar/pdfgen/internal/logging"
	"github.com/lvillar/pdfgen/internal/metrics"
)

// app carries the state shared by the subcommands.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          "pdfgen",
		Short:        "JSON to PDF tables and PDF form templates",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "configuration file (default $PDFGEN_CONFIG or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newServeCmd(a),
		newConvertCmd(a),
		newInspectCmd(a),
		newMCPCmd(a),
	)
	return cmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	logging.Init(cfg.Logging)
	a.cfg = cfg
	return nil
}

// converter builds a document converter with the configured asset limits.
func (a *app) converter() (*document.Converter, error) {
	fetcher, err := assets.New(
		assets.WithTimeout(a.cfg.Assets.Timeout),
		assets.WithMaxBytes(a.cfg.Assets.MaxBytes),
		assets.WithAllowedHosts(a.cfg.Assets.AllowedHosts...),
	)
	if err != nil {
		return nil, err
	}
	return document.New(
		document.WithFetcher(fetcher),
		document.WithFetchLimit(a.cfg.Assets.Concurrency),
		document.WithCreator("pdfgen "+version),
		document.WithHooks(metrics.DocumentHooks()),
	), nil
}
