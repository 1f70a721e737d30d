/**
 * Tesseract OCR worker
 *
 * Production Worker implementation over gosseract. One client is held for
 * the worker's lifetime and reused across recognitions. Confidence is the
 * mean word-box confidence when Tesseract reports word boxes, with a
 * text-quality heuristic as fallback.
 */

package recognize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig holds Tesseract worker configuration
type TesseractConfig struct {
	// DataPath overrides the traineddata directory; empty uses the system
	// default
	DataPath string
}

// TesseractWorker handles OCR using a persistent gosseract client
type TesseractWorker struct {
	client   *gosseract.Client
	language string
}

// NewTesseractWorker creates a Tesseract-backed OCR worker, reporting
// startup status through fn
func NewTesseractWorker(ctx context.Context, cfg TesseractConfig, fn StatusFunc) (*TesseractWorker, error) {
	if fn == nil {
		fn = func(WorkerStatus) {}
	}

	fn(WorkerStatus{Status: "loading tesseract core", Progress: 0})
	client := gosseract.NewClient()
	fn(WorkerStatus{Status: "loading tesseract core", Progress: 1})

	if cfg.DataPath != "" {
		if err := client.SetTessdataPrefix(cfg.DataPath); err != nil {
			client.Close()
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	fn(WorkerStatus{Status: "initializing api", Progress: 1})

	return &TesseractWorker{client: client}, nil
}

// TesseractFactory adapts worker construction to the engine's WorkerFactory
// contract
func TesseractFactory(cfg TesseractConfig) WorkerFactory {
	return func(ctx context.Context, fn StatusFunc) (Worker, error) {
		return NewTesseractWorker(ctx, cfg, fn)
	}
}

// Recognize performs OCR over one frame image
func (w *TesseractWorker) Recognize(ctx context.Context, img image.Image, language string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if w.client == nil {
		return "", 0, fmt.Errorf("tesseract client is closed")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, fmt.Errorf("encode frame: %w", err)
	}

	if language != "" && language != w.language {
		if err := w.client.SetLanguage(language); err != nil {
			return "", 0, fmt.Errorf("set language: %w", err)
		}
		w.language = language
	}

	if err := w.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}

	text, err := w.client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	return text, w.confidence(text), nil
}

// Close releases the gosseract client; safe to call more than once
func (w *TesseractWorker) Close() error {
	if w.client == nil {
		return nil
	}
	err := w.client.Close()
	w.client = nil
	return err
}

// confidence scores the recognition on a 0-100 scale
func (w *TesseractWorker) confidence(text string) float64 {
	boxes, err := w.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence
		}
		return sum / float64(len(boxes))
	}
	return estimateConfidence(text)
}

// estimateConfidence approximates confidence from text quality indicators
// when word boxes are unavailable
func estimateConfidence(text string) float64 {
	confidence := 50.0

	if len(text) > 1000 {
		confidence += 10
	}
	if len(text) > 5000 {
		confidence += 10
	}

	words := strings.Fields(text)
	if len(words) > 100 {
		confidence += 10
	}

	// Reasonable character distribution suggests coherent output
	alphaCount := 0
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			alphaCount++
		}
	}
	if len(text) > 0 {
		alphaRatio := float64(alphaCount) / float64(len(text))
		if alphaRatio > 0.5 && alphaRatio < 0.9 {
			confidence += 10
		}
	}

	if confidence > 85 {
		confidence = 85
	}

	return confidence
}
