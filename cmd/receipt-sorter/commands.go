package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/receipt-sorter/internal/extraction"
	"github.com/zombor/receipt-sorter/internal/receipt"
)

func newServeCommand(cfg *rootConfig, parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("serve").SetParent(parent)
	var (
		port     = fs.IntLong("port", 8080, "HTTP server port")
		authUser = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
	)

	return &ff.Command{
		Name:      "serve",
		Usage:     "receipt-sorter serve [FLAGS]",
		ShortHelp: "run the HTTP API",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			db, err := cfg.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			analyzer, err := cfg.openAnalyzer(ctx)
			if err != nil {
				return err
			}
			defer analyzer.Close()

			store, err := cfg.openStore(ctx)
			if err != nil {
				return err
			}

			service := receipt.NewService(db, analyzer, store, cfg.logger)
			server := receipt.NewServer(service, receipt.BasicAuth{
				Username: *authUser,
				Password: *authPass,
			}, cfg.logger)

			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", *port),
				Handler:           server,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				cfg.logger.Info("Starting server", "address", httpServer.Addr)
				errc <- httpServer.ListenAndServe()
			}()

			if *authUser != "" || *authPass != "" {
				cfg.logger.Info("Basic auth enabled", "user", *authUser)
			}

			select {
			case err := <-errc:
				return fmt.Errorf("serving: %w", err)
			case <-ctx.Done():
			}

			cfg.logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down: %w", err)
			}
			return nil
		},
	}
}

func newExtractCommand(cfg *rootConfig, parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("extract").SetParent(parent)

	return &ff.Command{
		Name:      "extract",
		Usage:     "receipt-sorter extract [FLAGS] [FILE]",
		ShortHelp: "resolve a record from a saved analysis response (stdin when FILE is omitted)",
		Flags:     fs,
		Exec: func(_ context.Context, args []string) error {
			var (
				payload []byte
				err     error
			)
			switch len(args) {
			case 0:
				payload, err = io.ReadAll(os.Stdin)
			case 1:
				payload, err = os.ReadFile(args[0])
			default:
				return errors.New("extract takes at most one file")
			}
			if err != nil {
				return fmt.Errorf("reading analysis response: %w", err)
			}

			record, err := extraction.NewExtractor(cfg.logger).ExtractJSON(payload)
			if err != nil {
				return err
			}
			return printJSON(record)
		},
	}
}

func newProcessCommand(cfg *rootConfig, parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("process").SetParent(parent)

	return &ff.Command{
		Name:      "process",
		Usage:     "receipt-sorter process [FLAGS] IMAGE",
		ShortHelp: "analyze one receipt image, file it under cash/ or other/ and save its record",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("process takes exactly one image")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}

			db, err := cfg.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			analyzer, err := cfg.openAnalyzer(ctx)
			if err != nil {
				return err
			}
			defer analyzer.Close()

			store, err := cfg.openStore(ctx)
			if err != nil {
				return err
			}

			service := receipt.NewService(db, analyzer, store, cfg.logger)
			rec, err := service.ProcessReceipt(ctx, filepath.Base(args[0]), data, receipt.ContentTypeFor(args[0]))
			var relocErr *receipt.RelocationError
			if err != nil && !errors.As(err, &relocErr) {
				return err
			}
			return printJSON(rec)
		},
	}
}

func newExportCommand(cfg *rootConfig, parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("export").SetParent(parent)
	output := fs.StringLong("output", "receipts.xlsx", "Workbook path ('-' for stdout)")

	return &ff.Command{
		Name:      "export",
		Usage:     "receipt-sorter export [FLAGS]",
		ShortHelp: "write every stored receipt to an xlsx workbook",
		Flags:     fs,
		Exec: func(_ context.Context, _ []string) error {
			db, err := cfg.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			service := receipt.NewService(db, nil, nil, cfg.logger)
			if *output == "-" {
				return service.ExportReceipts(os.Stdout)
			}

			if err := writeFile(*output, service.ExportReceipts); err != nil {
				return err
			}
			cfg.logger.Info("Wrote workbook", "path", *output)
			return nil
		},
	}
}

// writeFile creates path and fills it with write. The file is removed when
// write fails, and a failed close is reported.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing workbook: %w", err)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
