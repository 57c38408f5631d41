package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/optimo/internal/common"
)

type fakeRunner struct {
	calls  [][]string
	output string // written to <outbase><ext> when non-empty
	ext    string
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, []byte(f.stderr), f.err
	}
	if f.output != "" {
		if err := os.WriteFile(args[1]+f.ext, []byte(f.output), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func newTestTesseract(cfg TesseractConfig, r Runner) *Tesseract {
	t := NewTesseract(cfg, slog.Default())
	t.runner = r
	return t
}

func TestTesseract_TextOutput(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRunner{output: "  TOTALE 12,50 \r\n\n\n  Grazie\n   \n", ext: ".txt"}
	eng := newTestTesseract(TesseractConfig{PSM: 6, TessdataDir: "/td"}, r)

	doc, err := eng.Recognize(context.Background(), Request{
		Input:   "/in/scan.png",
		OutBase: filepath.Join(dir, "ocr_original"),
		Lang:    "ita",
	})
	require.NoError(t, err)

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{
		"tesseract", "/in/scan.png", filepath.Join(dir, "ocr_original"), "-l", "ita",
		"--psm", "6", "--tessdata-dir", "/td",
	}, r.calls[0])

	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].Number)
	require.Len(t, doc.Pages[0].Lines, 2)
	assert.Equal(t, "TOTALE 12,50", doc.Pages[0].Lines[0].Text)
	assert.Equal(t, "Grazie", doc.Pages[0].Lines[1].Text)
	assert.Nil(t, doc.Pages[0].Lines[0].Confidence)
}

func TestTesseract_InvocationFailure(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1"), stderr: "Error opening data file ita.traineddata"}
	eng := newTestTesseract(TesseractConfig{}, r)

	_, err := eng.Recognize(context.Background(), Request{Input: "a.png", OutBase: filepath.Join(t.TempDir(), "x"), Lang: "ita"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEngineInvocation)
	assert.Contains(t, err.Error(), "traineddata")
}

func TestTesseract_MissingOutput(t *testing.T) {
	eng := newTestTesseract(TesseractConfig{}, &fakeRunner{})

	_, err := eng.Recognize(context.Background(), Request{Input: "a.png", OutBase: filepath.Join(t.TempDir(), "x"), Lang: "ita"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEngineOutput)
}

func TestTesseract_TSVConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
		"4\t1\t1\t1\t1\t0\t0\t0\t100\t10\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tTOTALE\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\t12,50\n" +
		"5\t1\t1\t1\t2\t1\t0\t0\t10\t10\t50\tGrazie\n" +
		"5\t1\t1\t1\t3\t1\t0\t0\t10\t10\t-1\t \n"
	r := &fakeRunner{output: tsv, ext: ".tsv"}
	eng := newTestTesseract(TesseractConfig{TSV: true}, r)

	doc, err := eng.Recognize(context.Background(), Request{Input: "a.png", OutBase: filepath.Join(t.TempDir(), "x"), Lang: "ita"})
	require.NoError(t, err)
	assert.Equal(t, "tsv", r.calls[0][len(r.calls[0])-1])

	lines := doc.Pages[0].Lines
	require.Len(t, lines, 2)
	assert.Equal(t, "TOTALE 12,50", lines[0].Text)
	require.NotNil(t, lines[0].Confidence)
	assert.InDelta(t, 0.8, *lines[0].Confidence, 1e-9)
	assert.Equal(t, "Grazie", lines[1].Text)
	assert.InDelta(t, 0.5, *lines[1].Confidence, 1e-9)
}

func TestTextToLines(t *testing.T) {
	assert.Empty(t, TextToLines(""))
	assert.Empty(t, TextToLines(" \n\t\n"))

	lines := TextToLines("a\fb\r\nc")
	require.Len(t, lines, 3)
	assert.Equal(t, "b", lines[1].Text)
}

func TestNewEngine(t *testing.T) {
	eng, err := NewEngine("tesseract", TesseractConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "tesseract", eng.Name())

	_, err = NewEngine("cloud-vision", TesseractConfig{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
