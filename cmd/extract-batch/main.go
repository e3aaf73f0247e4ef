package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/dipex/internal/app"
	"github.com/joseph-ayodele/dipex/internal/batch"
	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/logging"
	"github.com/joseph-ayodele/dipex/internal/repository"
	"github.com/joseph-ayodele/dipex/internal/service"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type options struct {
	dir       string
	out       string
	commit    bool
	userEmail string
	userName  string
	workers   int
	watch     bool
	from, to  *time.Time
}

func main() {
	var (
		dir       = flag.String("dir", "", "directory of payment screenshots (required)")
		out       = flag.String("out", "", "output XLSX file path when committing (defaults to parent directory)")
		commit    = flag.Bool("commit", false, "persist candidates as expense and payment records")
		userEmail = flag.String("user-email", "", "owner of committed records (required with --commit)")
		userName  = flag.String("user-name", "Local Batch", "display name used when the user is created")
		workers   = flag.Int("workers", 0, "concurrent extractions (defaults to BATCH_WORKERS)")
		fromStr   = flag.String("from", "", "export from date YYYY-MM-DD")
		toStr     = flag.String("to", "", "export to date YYYY-MM-DD")
		watch     = flag.Bool("watch", false, "after the initial pass, keep extracting images added to --dir")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *commit && *userEmail == "" {
		printError("Error: --user-email is required with --commit\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "expenses.xlsx")
	}

	opts := options{dir: *dir, out: *out, commit: *commit, userEmail: *userEmail, userName: *userName, workers: *workers, watch: *watch}
	for _, f := range []struct {
		name string
		raw  string
		dst  **time.Time
	}{{"from", *fromStr, &opts.from}, {"to", *toStr, &opts.to}} {
		if f.raw == "" {
			continue
		}
		parsed, err := time.Parse(entity.DateLayout, f.raw)
		if err != nil {
			printError("Error: invalid --%s date format, use YYYY-MM-DD: %v\n", f.name, err)
			os.Exit(1)
		}
		*f.dst = &parsed
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: load config: %v\n", err)
		os.Exit(1)
	}
	if opts.workers > 0 {
		cfg.Batch.Workers = opts.workers
	}
	// Extraction alone needs no database.
	if opts.commit {
		if err := cfg.Validate(); err != nil {
			printError("Error: invalid config: %v\n", err)
			os.Exit(1)
		}
	}

	logger := logging.NewLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, opts options, logger *slog.Logger) error {
	refs, stats, err := batch.Scan(opts.dir, true)
	if err != nil {
		return err
	}
	logger.Info("scan complete", "dir", opts.dir, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
	if len(refs) == 0 && !opts.watch {
		fmt.Println("No images found.")
		return nil
	}

	core, err := app.NewCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	var (
		extractor batch.Extractor = core.Orchestrator
		commit    func([]batch.Result) (int, int)
		finish    func() error
	)
	if opts.commit {
		store, err := repository.OpenStore(ctx, repository.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		user, err := service.NewUserService(store, logger).EnsureUser(ctx, opts.userEmail, opts.userName)
		if err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		logger.Info("using user", "id", user.ID, "email", user.Email)

		svc := app.NewService(core, store, app.ServiceDeps{}, logger)
		extractor = svc
		commit = func(results []batch.Result) (committed, failures int) {
			for _, r := range results {
				if r.Err != nil {
					failures++
					continue
				}
				if _, _, err := svc.Commit(ctx, r.Candidate, user.ID); err != nil {
					logger.Error("commit failed", "ref", r.Ref, "error", err)
					failures++
					continue
				}
				committed++
			}
			return committed, failures
		}
		finish = func() error {
			// The export outlives an interrupted watch.
			xlsx, err := svc.ExportExpensesXLSX(context.WithoutCancel(ctx), user.ID, opts.from, opts.to)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if err := os.WriteFile(opts.out, xlsx, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", opts.out, err)
			}
			return nil
		}
	}

	runner, err := batch.NewRunner(batch.Config{Workers: cfg.Batch.Workers}, extractor, core.Blobs, logger)
	if err != nil {
		return err
	}
	defer runner.Release()

	var total, committed, failures int
	process := func(refs []string) error {
		results := runner.Run(ctx, refs)
		total += len(results)
		if err := printResults(results); err != nil {
			return err
		}
		if commit == nil {
			for _, r := range results {
				if r.Err != nil {
					failures++
				}
			}
			return nil
		}
		c, f := commit(results)
		committed += c
		failures += f
		return nil
	}

	if len(refs) > 0 {
		if err := process(refs); err != nil {
			return err
		}
	}
	if opts.watch {
		if err := watch(ctx, opts.dir, process, logger); err != nil {
			return err
		}
	}

	if finish == nil {
		logger.Info("batch extraction complete", "files", total, "failures", failures)
		return nil
	}
	if err := finish(); err != nil {
		return err
	}

	logger.Info("batch processing complete",
		"files", total, "committed", committed, "failures", failures, "output_file", opts.out)
	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files found: %d\n", total)
	fmt.Printf("- Committed: %d\n", committed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", opts.out)
	return nil
}

// watch feeds images added under dir to process until ctx is done.
func watch(ctx context.Context, dir string, process func([]string) error, logger *slog.Logger) error {
	paths, errs, err := batch.Watch(ctx, batch.WatchConfig{
		Roots:      []string{dir},
		SkipHidden: true,
		Debounce:   500 * time.Millisecond,
	}, logger)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching for new images", "dir", dir)
	for {
		select {
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			if err := process([]string{p}); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

type line struct {
	Ref       string                      `json:"ref"`
	Candidate *entity.ExtractionCandidate `json:"candidate,omitempty"`
	Error     string                      `json:"error,omitempty"`
	ElapsedMS int64                       `json:"elapsed_ms"`
}

// printResults writes one JSON object per document to stdout.
func printResults(results []batch.Result) error {
	enc := json.NewEncoder(os.Stdout)
	for i := range results {
		r := results[i]
		l := line{Ref: r.Ref, ElapsedMS: r.Elapsed.Milliseconds()}
		if r.Err != nil {
			l.Error = r.Err.Error()
		} else {
			l.Candidate = &r.Candidate
		}
		if err := enc.Encode(l); err != nil {
			return err
		}
	}
	return nil
}
