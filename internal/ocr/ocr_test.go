package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	out      string
	err      error
	gotName  string
	gotArgs  []string
	gotImage image.Image
	block    bool
}

func (s *stubRunner) Run(ctx context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.gotName = name
	s.gotArgs = args
	if f, err := os.Open(args[0]); err == nil {
		s.gotImage, _ = png.Decode(f)
		_ = f.Close()
	}
	if s.block {
		<-ctx.Done()
		return nil, []byte("killed"), ctx.Err()
	}
	if s.err != nil {
		return nil, []byte("tesseract crashed"), s.err
	}
	return []byte(s.out), nil, nil
}

func grayPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		img.SetGray(x, 1, color.Gray{Y: 200})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func palettedGIF(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), palette.Plan9)
	img.SetColorIndex(1, 1, 42)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestRecognizer(t *testing.T, r Runner, cfg Config) *Recognizer {
	t.Helper()
	cfg.TempDir = t.TempDir()
	return NewRecognizer(cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).WithRunner(r)
}

func TestRecognize_NormalizesAndRuns(t *testing.T) {
	runner := &stubRunner{out: "Paid to Starbucks\r\n\r\n\r\n\r\n₹350.00\t\tSuccess\n-----\n"}
	rec := newTestRecognizer(t, runner, Config{PSM: 6, TessdataDir: "/usr/share/tessdata"})

	txt := rec.Recognize(context.Background(), grayPNG(t))

	assert.Equal(t, "Paid to Starbucks\n\n₹350.00 Success", txt)
	assert.Equal(t, "tesseract", runner.gotName)
	assert.Equal(t, []string{"stdout", "-l", "eng", "--psm", "6", "--tessdata-dir", "/usr/share/tessdata"}, runner.gotArgs[1:])
	require.NotNil(t, runner.gotImage)
	_, isRGBA := runner.gotImage.(*image.RGBA)
	assert.True(t, isRGBA || runner.gotImage.ColorModel() == color.RGBAModel || runner.gotImage.ColorModel() == color.NRGBAModel,
		"tesseract receives a color image, got %T", runner.gotImage)
}

func TestRecognize_PalettedInput(t *testing.T) {
	runner := &stubRunner{out: "UPI Ref 123456789012"}
	rec := newTestRecognizer(t, runner, Config{})

	res, err := rec.RecognizeDetailed(context.Background(), palettedGIF(t))
	require.NoError(t, err)
	assert.Equal(t, "gif", res.Format)
	assert.Equal(t, "UPI Ref 123456789012", res.Text)
	assert.Greater(t, res.Confidence, float32(0))
}

func TestRecognize_FailuresYieldEmptyText(t *testing.T) {
	t.Run("corrupt bytes", func(t *testing.T) {
		runner := &stubRunner{out: "never"}
		rec := newTestRecognizer(t, runner, Config{})
		assert.Equal(t, "", rec.Recognize(context.Background(), []byte("not an image")))
		assert.Empty(t, runner.gotName, "engine is not invoked for undecodable input")
	})

	t.Run("empty bytes", func(t *testing.T) {
		rec := newTestRecognizer(t, &stubRunner{}, Config{})
		assert.Equal(t, "", rec.Recognize(context.Background(), nil))
	})

	t.Run("engine crash", func(t *testing.T) {
		rec := newTestRecognizer(t, &stubRunner{err: errors.New("exit status 1")}, Config{})
		res, err := rec.RecognizeDetailed(context.Background(), grayPNG(t))
		require.Error(t, err)
		assert.Equal(t, "", res.Text)
		assert.Contains(t, res.Warnings, "tesseract crashed")
	})

	t.Run("engine timeout", func(t *testing.T) {
		rec := newTestRecognizer(t, &stubRunner{block: true}, Config{Timeout: 20 * time.Millisecond})
		res, err := rec.RecognizeDetailed(context.Background(), grayPNG(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, "", res.Text)
	})
}

func TestRecognize_RemovesTempFile(t *testing.T) {
	runner := &stubRunner{out: "x"}
	dir := t.TempDir()
	rec := NewRecognizer(Config{TempDir: dir}, nil).WithRunner(runner)

	rec.Recognize(context.Background(), grayPNG(t))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNormalize(t *testing.T) {
	in := "  Payment  to   Uber\r\n\r\n\r\n\r\n=====\nAmount\t₹ 120  \n"
	assert.Equal(t, "Payment to Uber\n\nAmount ₹ 120", Normalize(in))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "01/01/2025", Normalize("01/01/2025"), "digits are never rewritten")
}

func TestHeuristicConfidence(t *testing.T) {
	assert.Equal(t, float32(0), heuristicConfidence("   "))
	low := heuristicConfidence("hello")
	high := heuristicConfidence("Paid ₹350.00 on 01/01/2025 UPI Ref 123456789012")
	assert.Greater(t, high, low)
	assert.LessOrEqual(t, high, float32(1))
}

func TestExecRunner_MissingEngine(t *testing.T) {
	r := &execRunner{}
	_, _, err := r.Run(context.Background(), "dipex-no-such-tesseract", slog.Default(), "x.png", "stdout")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEngineMissing))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("short", 10))
	assert.Equal(t, "...6789", tail("0123456789", 4))
}
