/**
 * Recognition engine - OCR worker lifecycle, progress reporting
 *
 * The OCR algorithm itself is an external collaborator behind the Worker
 * interface. The engine owns one worker, created lazily on first Initialize
 * and kept across recognitions to amortize startup cost. Raw worker status
 * labels are normalized into the four-phase progress taxonomy the workflow
 * step-gates on: loading -> initializing -> recognizing -> completed.
 */

package recognize

import (
	"context"
	stderrors "errors"
	"image"
	"strings"

	"github.com/adverant/nexus/photoscan/internal/capture"
	"github.com/adverant/nexus/photoscan/internal/errors"
	"github.com/adverant/nexus/photoscan/internal/logging"
)

// Phase identifies one step of the normalized progress taxonomy
type Phase string

const (
	PhaseLoading      Phase = "loading"
	PhaseInitializing Phase = "initializing"
	PhaseRecognizing  Phase = "recognizing"
	PhaseCompleted    Phase = "completed"
)

// phaseRank orders phases; events for an earlier phase than the current one
// are dropped, keeping the stream strictly ordered
var phaseRank = map[Phase]int{
	PhaseLoading:      0,
	PhaseInitializing: 1,
	PhaseRecognizing:  2,
	PhaseCompleted:    3,
}

// Progress is one normalized progress event. Percent is 0-100 and monotonic
// within a phase.
type Progress struct {
	Phase   Phase
	Percent int
	Message string
}

// Result is the outcome of one recognition
type Result struct {
	Text       string
	Confidence float64
	Language   string
}

// WorkerStatus is a raw status event from the underlying OCR worker,
// mirroring the external engine's logger callback shape
type WorkerStatus struct {
	Status   string
	Progress float64
}

// StatusFunc receives raw worker status events
type StatusFunc func(WorkerStatus)

// Worker is the external OCR engine contract
type Worker interface {
	Recognize(ctx context.Context, img image.Image, language string) (text string, confidence float64, err error)
	Close() error
}

// WorkerFactory starts an OCR worker, reporting startup status through fn
type WorkerFactory func(ctx context.Context, fn StatusFunc) (Worker, error)

// ErrNotReady is a precondition violation, deliberately outside the workflow
// error taxonomy
var ErrNotReady = stderrors.New("recognize: engine not ready")

// State is the engine lifecycle state
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateRecognizing
)

// Engine drives the OCR worker lifecycle. It has exactly one writer (the
// workflow); no internal locking is needed.
type Engine struct {
	factory  WorkerFactory
	progress chan<- Progress
	logger   *logging.Logger

	worker Worker
	state  State

	lastPhase   Phase
	lastPercent int
}

// NewEngine creates an engine over the given worker factory. The progress
// channel may be nil; sends never block (events are dropped when the channel
// is full).
func NewEngine(factory WorkerFactory, progress chan<- Progress, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewLogger("recognize")
	}
	return &Engine{
		factory:  factory,
		progress: progress,
		logger:   logger,
	}
}

// Initialize starts the OCR worker. Idempotent: a call while already ready is
// a no-op. On failure the engine stays uninitialized and is safe to retry.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.state == StateReady || e.state == StateRecognizing {
		return nil
	}

	e.state = StateLoading
	e.resetPhase()
	e.emit(Progress{Phase: PhaseLoading, Percent: 0, Message: "Loading OCR engine"})

	worker, err := e.factory(ctx, e.translateStatus)
	if err != nil {
		e.state = StateUninitialized
		e.logger.Error("Worker startup failed", "error", err)
		return errors.NewInitializationFailedError("", err)
	}

	e.worker = worker
	e.state = StateReady
	e.emit(Progress{Phase: PhaseInitializing, Percent: 100, Message: "OCR engine ready"})
	e.logger.Info("OCR worker initialized")
	return nil
}

// Recognize runs OCR over a captured frame. Requires a ready engine.
// NO_TEXT_FOUND is a first-class outcome for empty or whitespace-only text,
// distinct from PROCESSING_FAILED.
func (e *Engine) Recognize(ctx context.Context, frame *capture.Frame, language string) (*Result, error) {
	if e.state != StateReady {
		return nil, ErrNotReady
	}
	if language == "" {
		language = "eng"
	}

	e.state = StateRecognizing
	defer func() { e.state = StateReady }()

	e.resetPhase()
	e.emit(Progress{Phase: PhaseRecognizing, Percent: 0, Message: "Recognizing text"})

	text, confidence, err := e.worker.Recognize(ctx, frame.Image(), language)
	if err != nil {
		e.logger.Error("Recognition failed", "language", language, "error", err)
		return nil, errors.NewProcessingFailedError("", err)
	}

	e.emit(Progress{Phase: PhaseCompleted, Percent: 100, Message: "Recognition complete"})

	if strings.TrimSpace(text) == "" {
		e.logger.Warn("Recognition produced no usable text", "language", language)
		return nil, errors.NewNoTextFoundError("")
	}

	confidence = clampConfidence(confidence)
	e.logger.Info("Recognition complete", "language", language,
		"confidence", confidence, "chars", len(text))

	return &Result{
		Text:       text,
		Confidence: confidence,
		Language:   language,
	}, nil
}

// Ready reports whether the engine can accept a recognition request
func (e *Engine) Ready() bool {
	return e.state == StateReady
}

// Terminate releases the worker and returns the engine to uninitialized.
// Idempotent.
func (e *Engine) Terminate() {
	if e.worker != nil {
		if err := e.worker.Close(); err != nil {
			e.logger.Warn("Worker close failed", "error", err)
		}
		e.worker = nil
	}
	e.state = StateUninitialized
}

// translateStatus normalizes a raw worker status label into the phase
// taxonomy. Unrecognized labels are attributed to the loading phase.
func (e *Engine) translateStatus(ws WorkerStatus) {
	status := strings.ToLower(ws.Status)

	var phase Phase
	var message string
	switch {
	case strings.Contains(status, "recogniz"):
		phase = PhaseRecognizing
		message = "Recognizing text"
	case strings.Contains(status, "init") || strings.Contains(status, "api"):
		phase = PhaseInitializing
		message = "Initializing OCR engine"
	case strings.Contains(status, "traineddata") || strings.Contains(status, "language"):
		phase = PhaseLoading
		message = "Loading language data"
	default:
		phase = PhaseLoading
		message = "Loading OCR engine"
	}

	e.emit(Progress{
		Phase:   phase,
		Percent: int(ws.Progress * 100),
		Message: message,
	})
}

// emit publishes a progress event, enforcing phase ordering and per-phase
// percentage monotonicity. Sends never block.
func (e *Engine) emit(p Progress) {
	if p.Percent < 0 {
		p.Percent = 0
	}
	if p.Percent > 100 {
		p.Percent = 100
	}

	if e.lastPhase != "" {
		if phaseRank[p.Phase] < phaseRank[e.lastPhase] {
			return
		}
		if p.Phase == e.lastPhase && p.Percent < e.lastPercent {
			return
		}
	}
	e.lastPhase = p.Phase
	e.lastPercent = p.Percent

	if e.progress == nil {
		return
	}
	select {
	case e.progress <- p:
	default:
	}
}

// resetPhase restarts the ordering guard at the beginning of an operation
func (e *Engine) resetPhase() {
	e.lastPhase = ""
	e.lastPercent = 0
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
