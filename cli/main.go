// surgery-ai prints the AI generation metadata embedded in images.
//
//	surgery-ai view [--json|--yaml] [-v] <image>...
//	surgery-ai scan [--workers N] [--json|--yaml] <dir|image>...
//
// Configuration comes from --config or SURGERY_AI_CONFIG; flags given on
// the command line override the file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ankit-chaubey/aimeta-surgery/core"
	"github.com/ankit-chaubey/aimeta-surgery/core/image"
	"github.com/ankit-chaubey/aimeta-surgery/core/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		core.PrintError(err.Error())
		os.Exit(1)
	}
}

const usage = `Usage:
  surgery-ai view [flags] <image>...
  surgery-ai scan [flags] <dir|image>...

Flags:
`

func run(args []string) error {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}
	cmd, args := args[0], args[1:]
	if cmd != "view" && cmd != "scan" {
		return fmt.Errorf("unknown command %q (want view or scan)", cmd)
	}

	var (
		configPath string
		jsonOut    bool
		yamlOut    bool
		verbose    bool
		noStealth  bool
		noEXIF     bool
	)
	flagSet := pflag.NewFlagSet("surgery-ai "+cmd, pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file (default: $"+core.ConfigEnv+")")
	flagSet.BoolVar(&jsonOut, "json", false, "print JSON")
	flagSet.BoolVar(&yamlOut, "yaml", false, "print YAML")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "include the raw payload in text output")
	flagSet.BoolVar(&noStealth, "no-stealth", false, "skip the alpha-channel carrier")
	flagSet.BoolVar(&noEXIF, "no-exif", false, "skip the EXIF UserComment carrier")
	workers := flagSet.Int("workers", 0, "parallel files in scan mode (0: one per CPU)")
	logLevel := flagSet.String("log-level", "", "debug, info, warn or error")
	flagSet.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return errors.New("no input files")
	}

	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return err
	}
	switch {
	case jsonOut:
		cfg.Output = core.OutputJSON
	case yamlOut:
		cfg.Output = core.OutputYAML
	}
	if flagSet.Changed("workers") {
		cfg.Workers = *workers
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if noStealth {
		cfg.Stealth = false
	}
	if noEXIF {
		cfg.EXIF = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Environment: cfg.Environment, LogLevel: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	extractor := image.NewFromConfig(cfg, log)
	printer := core.NewPrinter(cfg.Output, verbose)

	if cmd == "view" {
		return view(ctx, extractor, printer, flagSet.Args())
	}
	return scan(ctx, extractor, printer, log, flagSet.Args(), cfg.Workers)
}

func view(ctx context.Context, extractor *image.Extractor, printer *core.Printer, files []string) error {
	for _, file := range files {
		m, err := extractor.ParseFile(ctx, file)
		if err != nil {
			return err
		}
		if err := printer.PrintMetadata(file, m); err != nil {
			return err
		}
	}
	return nil
}

func scan(ctx context.Context, extractor *image.Extractor, printer *core.Printer, log *zap.Logger, roots []string, workers int) error {
	paths, err := image.CollectImages(roots)
	if err != nil {
		return err
	}
	log.Info("scanning", zap.Int("files", len(paths)), zap.Int("workers", workers))

	results, err := extractor.ParseFiles(ctx, paths, workers)
	if err != nil {
		return err
	}

	metas := make([]*core.GenMetadata, len(results))
	errs := make([]error, len(results))
	found := 0
	for i, r := range results {
		metas[i], errs[i] = r.Metadata, r.Err
		if r.Metadata != nil {
			found++
		}
	}
	log.Info("scan finished", zap.Int("files", len(paths)), zap.Int("with_metadata", found))
	return printer.PrintBatch(paths, metas, errs)
}
