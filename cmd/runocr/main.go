package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joseph-ayodele/dipex/internal/app"
	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/logging"
	"github.com/joseph-ayodele/dipex/internal/pipeline"
)

type stage struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Text   string `json:"text,omitempty"`
}

type report struct {
	Ref       string                     `json:"ref"`
	Candidate entity.ExtractionCandidate `json:"candidate"`
	Vision    stage                      `json:"vision"`
	OCR       stage                      `json:"ocr"`
	ElapsedMS int64                      `json:"elapsed_ms"`
}

func toStage(r pipeline.StageResult, withText bool) stage {
	s := stage{Status: r.Status.String(), Reason: r.Reason}
	if withText {
		s.Text = r.Text
	}
	return s
}

func main() {
	showText := flag.Bool("text", false, "include raw stage text in the report")
	noVision := flag.Bool("no-vision", false, "skip the vision extractor even when configured")
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.App)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [-text] [-no-vision] <image path | gs://bucket/object>")
		os.Exit(2)
	}
	ref := flag.Arg(0)
	if *noVision {
		cfg.LLM.APIKey = ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	core, err := app.NewCore(ctx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		os.Exit(1)
	}
	defer core.Close()

	out, err := core.Orchestrator.Run(ctx, &entity.RawDocument{Ref: ref})
	if err != nil {
		logger.Error("load document", "ref", ref, "error", err)
		_ = core.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report{
		Ref:       ref,
		Candidate: out.Candidate,
		Vision:    toStage(out.Vision, *showText),
		OCR:       toStage(out.OCR, *showText),
		ElapsedMS: out.Elapsed.Milliseconds(),
	}); err != nil {
		logger.Error("encode report", "error", err)
		os.Exit(1)
	}
}
