package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expense-tracker/internal/app"
	"github.com/zombor/expense-tracker/internal/invoice"
)

func main() {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("invoice-scan")
	var (
		target      = fs.StringLong("target-currency", "", "Currency to convert into (defaults to --default-currency)")
		verbose     = fs.BoolLong("verbose", "Log progress to stderr")
		pipelineCfg = app.RegisterPipelineFlags(fs)
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix(app.EnvVarPrefix),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if !*verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	args := fs.GetArgs()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: invoice-scan [flags] <image>\n")
		os.Exit(1)
	}

	targetCurrency := *target
	if targetCurrency == "" {
		targetCurrency = pipelineCfg.DefaultCurrency
	}

	if err := scan(args[0], targetCurrency, pipelineCfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func scan(path, targetCurrency string, cfg *app.PipelineConfig, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", invoice.ErrUploadMalformed, err)
	}

	ctx := context.Background()
	if cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ProviderTimeout)
		defer cancel()
	}

	pipeline, err := app.BuildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	result, err := pipeline.Process(ctx, invoice.Upload{
		Filename:    filepath.Base(path),
		ContentType: invoice.ContentTypeFor("", path),
		Data:        data,
	}, targetCurrency)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s: %w", cfg.ProviderTimeout, err)
		}
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	fmt.Fprintln(out, result.Summary())
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
	return nil
}
