package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"epub-locations/api/library"
	"epub-locations/api/polly"
	"epub-locations/api/uploader"
	"epub-locations/config"
	"epub-locations/pipeline"
	"epub-locations/storage"

	"go.uber.org/zap"
)

const usage = `Usage:
  epub-locations convert [-config FILE] [-chars N] [-atomic] <book.epub> <out.json>
  epub-locations serve [-config FILE]
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid arguments")

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	switch args[0] {
	case "convert":
		return convert(args[1:], stdout, stderr)
	case "serve":
		return serve(args[1:], stderr)
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func convert(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	chars := fs.Int("chars", pipeline.DefaultCharsPerLocation, "characters per location (overrides locations.charsPerLocation)")
	atomic := fs.Bool("atomic", false, "write through a temporary file and rename")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	epubPath, jsonOutPath := fs.Arg(0), fs.Arg(1)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	converter := pipeline.NewConverter(logger,
		pipeline.WithCharsPerLocation(cfg.Locations.CharsPerLocation),
		pipeline.WithAtomicWrite(cfg.Output.Atomic || *atomic),
	)

	charsPerLocation := converter.CharsPerLocation()
	if flagSet(fs, "chars") {
		charsPerLocation = *chars
	}

	doc, err := converter.Run(epubPath, jsonOutPath, charsPerLocation)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Wrote %d locations to %s\n", doc.TotalLocations, jsonOutPath)
	return nil
}

func serve(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// =========
	// Logging
	// =========
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// =========
	// Storage
	// =========
	for _, dir := range []string{cfg.Server.DownloadDir, cfg.Output.Dir} {
		if err := storage.CreateDirectoryIfNotExists(dir); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	repo, err := storage.NewRepository(cfg.Library.Database)
	if err != nil {
		return err
	}
	defer repo.Close()

	state, err := storage.NewStateStore(cfg.Library.State)
	if err != nil {
		return err
	}
	defer state.Close()

	// =========
	// Narration
	// =========
	var narrator *polly.Narrator
	if cfg.Narration.Enabled {
		client, err := polly.NewClient(context.Background())
		if err != nil {
			return err
		}
		narrator = polly.NewNarrator(client, cfg.Narration.Voice, cfg.Narration.RateLimit, cfg.Narration.CacheDir, logger)
	}

	// =========
	// HTTP
	// =========
	converter := pipeline.NewConverter(logger,
		pipeline.WithCharsPerLocation(cfg.Locations.CharsPerLocation),
		pipeline.WithAtomicWrite(cfg.Output.Atomic),
	)

	mux := http.NewServeMux()
	mux.Handle("POST /upload", uploader.NewUploader(converter, repo, cfg.Server.DownloadDir, cfg.Output.Dir, logger))
	library.NewHandler(repo, state, narrator, logger).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error
	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
