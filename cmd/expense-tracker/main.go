package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expense-tracker/internal/app"
	"github.com/zombor/expense-tracker/internal/expense"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env file is fine
	_ = godotenv.Load()

	fs := ff.NewFlagSet("expense-tracker")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "expense-tracker.db", "Database file path")
		maxUploadMB = fs.IntLong("max-upload-mb", 20, "Maximum invoice upload size in MB")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		pipelineCfg = app.RegisterPipelineFlags(fs)
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix(app.EnvVarPrefix),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*port, *dbPath, *maxUploadMB, *authUser, *authPass, pipelineCfg); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(port int, dbPath string, maxUploadMB int, authUser, authPass string, pipelineCfg *app.PipelineConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Initializing database...", "path", dbPath)
	db, err := expense.NewBoltDB(dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	pipeline, err := app.BuildPipeline(ctx, pipelineCfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	service := expense.NewService(db, pipeline, pipelineCfg.DefaultCurrency)
	server := expense.NewServer(service, expense.Config{
		BasicAuth: expense.BasicAuth{
			Username: authUser,
			Password: authPass,
		},
		Version:         version,
		MaxUploadBytes:  int64(maxUploadMB) << 20,
		ProviderTimeout: pipelineCfg.ProviderTimeout,
	})

	if authUser != "" || authPass != "" {
		slog.Info("Basic auth enabled", "user", authUser)
	}

	return server.Run(ctx, fmt.Sprintf(":%d", port))
}
