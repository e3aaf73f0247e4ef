package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int           // e.g. 6 for a uniform block of text; 0 keeps tesseract's default
	Timeout       time.Duration // per recognition; default 20s
	TempDir       string        // where normalized PNGs are written; default os.TempDir()
}

// Result is the detailed outcome of one recognition.
type Result struct {
	Text       string
	Format     string // decoded source format (png, jpeg, webp, ...)
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// Recognizer turns image bytes into text with tesseract.
type Recognizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewRecognizer(cfg Config, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Recognizer{cfg: cfg, runner: &execRunner{}, logger: logger}
}

// WithRunner swaps the command runner; used by tests.
func (r *Recognizer) WithRunner(runner Runner) *Recognizer {
	r.runner = runner
	return r
}

// Recognize returns the text found in img, or "" when recognition is not possible.
func (r *Recognizer) Recognize(ctx context.Context, img []byte) string {
	res, err := r.RecognizeDetailed(ctx, img)
	if err != nil {
		return ""
	}
	return res.Text
}

// RecognizeDetailed is Recognize with the failure reason and recognition metadata.
func (r *Recognizer) RecognizeDetailed(ctx context.Context, img []byte) (Result, error) {
	start := time.Now()
	res := Result{Language: r.cfg.TesseractLang}

	normalized, format, err := toRGBA(img)
	res.Format = format
	if err != nil {
		r.logger.Warn("ocr.decode.failed", "bytes", len(img), "error", err)
		res.Duration = time.Since(start)
		return res, err
	}

	path, cleanup, err := r.writeTemp(normalized)
	if err != nil {
		r.logger.Error("ocr.tempfile.failed", "error", err)
		res.Duration = time.Since(start)
		return res, err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	txt, warn, err := r.tesseract(ctx, path)
	res.Warnings = append(res.Warnings, warn...)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	res.Text = Normalize(txt)
	res.Confidence = heuristicConfidence(res.Text)
	r.logger.Debug("ocr.recognize.ok",
		"format", format,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (r *Recognizer) tesseract(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang> [--psm N] [--tessdata-dir D]
	args := []string{path, "stdout", "-l", r.cfg.TesseractLang}
	if r.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(r.cfg.PSM))
	}
	if r.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", r.cfg.TessdataDir)
	}

	out, errb, err := r.runner.Run(ctx, r.cfg.Tesseract, r.logger, args...)
	if err != nil {
		if ctx.Err() != nil {
			return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", ctx.Err())
		}
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}

func (r *Recognizer) writeTemp(png []byte) (string, func(), error) {
	f, err := os.CreateTemp(r.cfg.TempDir, "dipex-ocr-*.png")
	if err != nil {
		return "", func() {}, err
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := f.Write(png); err != nil {
		_ = f.Close()
		cleanup()
		return "", func() {}, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return filepath.Clean(path), cleanup, nil
}
