package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-sorter/internal/analysis"
	"github.com/zombor/receipt-sorter/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// rootConfig holds the flags shared by every subcommand
type rootConfig struct {
	dbPath      *string
	store       *string
	storagePath *string
	bucket      *string
	region      *string
	analyzer    *string
	geminiKey   *string
	geminiModel *string
	ollamaURL   *string
	ollamaModel *string
	logLevel    *string

	logger *slog.Logger
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-sorter")
	cfg := &rootConfig{
		dbPath:      fs.StringLong("db", "receipt-sorter.db", "Database file path"),
		store:       fs.StringLong("store", "local", "Object store: 'local' or 's3'"),
		storagePath: fs.StringLong("storage", "./receipts", "Storage directory path (local store)"),
		bucket:      fs.StringLong("bucket", "", "S3 bucket name (s3 store)"),
		region:      fs.StringLong("region", "", "AWS region (defaults to the AWS environment)"),
		analyzer:    fs.StringLong("analyzer", "textract", "Analyzer: 'textract', 'gemini' or 'ollama'"),
		geminiKey:   fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)"),
		geminiModel: fs.StringLong("gemini-model", analysis.DefaultGeminiModel, "Google Gemini model name"),
		ollamaURL:   fs.StringLong("ollama-url", analysis.DefaultOllamaURL, "Ollama API base URL"),
		ollamaModel: fs.StringLong("ollama-model", analysis.DefaultOllamaModel, "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)"),
		logLevel:    fs.StringLong("log-level", "info", "Log level: debug, info, warn or error"),
	}
	_ = fs.BoolLong("version", "Show version information")

	root := &ff.Command{
		Name:      "receipt-sorter",
		Usage:     "receipt-sorter [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "extract Brazilian receipt records and sort receipt images by payment method",
		Flags:     fs,
		Exec: func(context.Context, []string) error {
			return ff.ErrHelp
		},
		Subcommands: []*ff.Command{
			newServeCommand(cfg, fs),
			newExtractCommand(cfg, fs),
			newProcessCommand(cfg, fs),
			newExportCommand(cfg, fs),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Parse(os.Args[1:], ff.WithEnvVarPrefix("RECEIPT_SORTER")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		if !errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}

	logger, err := newLogger(*cfg.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	cfg.logger = logger

	if err := root.Run(ctx); err != nil {
		if errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
			os.Exit(1)
		}
		logger.Error("Command failed", "command", root.GetSelected().Name, "error", err)
		os.Exit(1)
	}
}

// newLogger builds the text logger used by every subcommand
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// openDB opens the receipt database
func (c *rootConfig) openDB() (*receipt.BoltDB, error) {
	c.logger.Info("Initializing database...", "path", *c.dbPath)
	db, err := receipt.NewBoltDB(*c.dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return db, nil
}

// openStore builds the configured object store
func (c *rootConfig) openStore(ctx context.Context) (receipt.ObjectStore, error) {
	switch *c.store {
	case "local":
		c.logger.Info("Initializing local storage...", "path", *c.storagePath)
		store, err := receipt.NewLocalStorage(*c.storagePath)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		return store, nil
	case "s3":
		c.logger.Info("Initializing S3 storage...", "bucket", *c.bucket, "region", *c.region)
		store, err := receipt.NewS3Storage(ctx, *c.bucket, *c.region)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid store type %q (valid: local or s3)", *c.store)
	}
}

// openAnalyzer builds the configured analysis provider
func (c *rootConfig) openAnalyzer(ctx context.Context) (analysis.Analyzer, error) {
	switch *c.analyzer {
	case "textract":
		c.logger.Info("Initializing Textract analyzer...", "region", *c.region)
		a, err := analysis.NewTextract(ctx, *c.region)
		if err != nil {
			return nil, fmt.Errorf("initializing textract: %w", err)
		}
		return a, nil
	case "gemini":
		apiKey := *c.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		c.logger.Info("Initializing Gemini analyzer...", "model", *c.geminiModel)
		a, err := analysis.NewGemini(ctx, apiKey, *c.geminiModel)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini: %w", err)
		}
		return a, nil
	case "ollama":
		c.logger.Info("Initializing Ollama analyzer...", "url", *c.ollamaURL, "model", *c.ollamaModel)
		a, err := analysis.NewOllama(*c.ollamaURL, *c.ollamaModel)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama: %w", err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("invalid analyzer type %q (valid: textract, gemini or ollama)", *c.analyzer)
	}
}
