package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// ErrEngineMissing means the tesseract binary could not be found on PATH.
var ErrEngineMissing = errors.New("ocr engine not installed")

// Runner executes the OCR engine. Tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

const stderrTail = 4 << 10

type execRunner struct {
	warnMissing sync.Once
}

func (r *execRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	var out, errb bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	switch {
	case err == nil:
		logger.Debug("ocr.exec.ok", "cmd", name, "elapsed_ms", elapsed, "stdout_bytes", out.Len())
		return out.Bytes(), errb.Bytes(), nil
	case errors.Is(err, exec.ErrNotFound):
		r.warnMissing.Do(func() {
			logger.Warn("ocr.engine.missing", "cmd", name, "hint", "install tesseract or set TESSERACT_BIN")
		})
		return nil, nil, fmt.Errorf("%w: %s", ErrEngineMissing, name)
	default:
		logger.Warn("ocr.exec.failed",
			"cmd", name,
			"elapsed_ms", elapsed,
			"error", err,
			"stderr", tail(errb.String(), stderrTail),
		)
		return out.Bytes(), errb.Bytes(), err
	}
}

// tail keeps the last n bytes of s; tesseract prints the useful part of an error last.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
