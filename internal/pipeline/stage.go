package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StageStatus is the outcome of one extraction source.
type StageStatus int

const (
	StatusSkipped StageStatus = iota
	StatusOk
	StatusUnavailable
)

func (s StageStatus) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "skipped"
	}
}

// StageResult carries text out of a stage, or the reason it has none.
// Soft failures travel as Unavailable results, never as errors.
type StageResult struct {
	Status StageStatus
	Text   string
	Reason string
}

func Ok(text string) StageResult {
	return StageResult{Status: StatusOk, Text: text}
}

func Unavailable(reason string) StageResult {
	return StageResult{Status: StatusUnavailable, Reason: reason}
}

func Skipped(reason string) StageResult {
	return StageResult{Status: StatusSkipped, Reason: reason}
}

func (r StageResult) IsOk() bool { return r.Status == StatusOk }

// Stage names used in logs, metrics and audit records.
const (
	StageVision = "vision"
	StageOCR    = "ocr"
	StageBlob   = "blob"
)

// runStage calls fn under timeout and converts errors, deadlines and panics into Unavailable.
func runStage(ctx context.Context, timeout time.Duration, fn func(context.Context) (string, error)) (res StageResult) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			res = Unavailable(fmt.Sprintf("panic: %v", r))
		}
	}()

	text, err := fn(ctx)
	empty := strings.TrimSpace(text) == ""
	switch {
	case (err != nil || empty) && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)):
		return Unavailable("timeout")
	case err != nil:
		return Unavailable(err.Error())
	case empty:
		return Unavailable("empty text")
	}
	return Ok(text)
}
