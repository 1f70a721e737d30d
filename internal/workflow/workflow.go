/**
 * Capture workflow - the pipeline state machine
 *
 * Drives idle -> camera-active -> photo-captured -> processing ->
 * results/error, sequencing the camera session and the recognition engine,
 * running the geolocation lookup concurrently with recognition, and exposing
 * the current stage and session data to the presentation layer.
 *
 * The recognition outcome is authoritative; the location outcome is
 * best-effort. Every external failure is mapped into the error taxonomy
 * before it is surfaced.
 */

package workflow

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/adverant/nexus/photoscan/internal/capture"
	"github.com/adverant/nexus/photoscan/internal/errors"
	"github.com/adverant/nexus/photoscan/internal/extract"
	"github.com/adverant/nexus/photoscan/internal/logging"
	"github.com/adverant/nexus/photoscan/internal/recognize"
)

// Stage is the discrete phase of the capture/recognition workflow
type Stage string

const (
	StageIdle          Stage = "idle"
	StageCameraActive  Stage = "camera_active"
	StagePhotoCaptured Stage = "photo_captured"
	StageProcessing    Stage = "processing"
	StageResults       Stage = "results"
	StageError         Stage = "error"
)

// ErrInvalidStage reports an operation invoked in a stage where it is not
// defined. It never transitions the workflow.
var ErrInvalidStage = stderrors.New("workflow: operation not valid in current stage")

// Session is the per-scan state exposed to the presentation layer. Stage is
// the single source of truth for which fields are valid.
type Session struct {
	ID           string
	Stage        Stage
	Frame        *capture.Frame
	Result       *recognize.Result
	Tokens       []string
	Location     *Position
	ErrorMessage string
}

// Config holds workflow configuration
type Config struct {
	Language        string
	Constraints     capture.Constraints
	LocationTimeout time.Duration
	MinTokenRun     int
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.LocationTimeout <= 0 {
		c.LocationTimeout = 5 * time.Second
	}
	if c.MinTokenRun <= 0 {
		c.MinTokenRun = extract.MinRunLength
	}
}

// Workflow coordinates one capture/recognition pipeline instance. One
// instance per interface; state is guarded by a single mutex.
type Workflow struct {
	mu  sync.Mutex
	cfg Config

	camera    *capture.Session
	engine    *recognize.Engine
	locator   Locator
	clipboard Clipboard
	clk       clock.Clock
	logger    *logging.Logger

	progress chan recognize.Progress
	session  Session

	// single-flight guard for the camera-start transition
	cameraStarting bool
}

// New creates a workflow over the injected capabilities. locator and
// clipboard may be nil: no location is recorded and clipboard actions report
// failure. A nil clk uses the wall clock.
func New(cfg Config, camera *capture.Session, factory recognize.WorkerFactory,
	locator Locator, clipboard Clipboard, clk clock.Clock, logger *logging.Logger) *Workflow {

	cfg.applyDefaults()
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.NewLogger("workflow")
	}

	progress := make(chan recognize.Progress, 32)
	engine := recognize.NewEngine(factory, progress, logger)

	return &Workflow{
		cfg:       cfg,
		camera:    camera,
		engine:    engine,
		locator:   locator,
		clipboard: clipboard,
		clk:       clk,
		logger:    logger,
		progress:  progress,
		session:   Session{Stage: StageIdle},
	}
}

// Progress exposes the normalized recognition progress stream consumed by
// the presentation layer
func (w *Workflow) Progress() <-chan recognize.Progress {
	return w.progress
}

// Stage returns the current workflow stage
func (w *Workflow) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.Stage
}

// Snapshot returns a copy of the current session data
func (w *Workflow) Snapshot() Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.session
	if len(w.session.Tokens) > 0 {
		s.Tokens = append([]string(nil), w.session.Tokens...)
	}
	return s
}

// StartCamera drives Idle -> CameraActive. A concurrent second call while one
// is in flight is a silent no-op, preventing duplicate stream requests from
// rapid repeated triggers.
func (w *Workflow) StartCamera(ctx context.Context) error {
	w.mu.Lock()
	if w.cameraStarting {
		w.mu.Unlock()
		w.logger.Debug("Camera start already in flight, dropping request")
		return nil
	}
	if w.session.Stage != StageIdle {
		w.mu.Unlock()
		return ErrInvalidStage
	}
	w.cameraStarting = true
	w.session.ID = uuid.NewString()
	w.mu.Unlock()

	err := w.startCamera(ctx)

	w.mu.Lock()
	w.cameraStarting = false
	w.mu.Unlock()
	return err
}

// startCamera performs the availability check and acquisition. Callers hold
// the single-flight guard, not the mutex.
func (w *Workflow) startCamera(ctx context.Context) error {
	id := w.sessionID()
	w.logger.Info("[Session "+id+"] Step 1: Checking camera availability")

	if !w.camera.CheckAvailability(ctx) {
		return w.toError(errors.NewNoCameraError(id))
	}

	w.logger.Info("[Session "+id+"] Step 2: Requesting camera stream",
		"facing", w.cfg.Constraints.Facing)
	if err := w.camera.Start(ctx, w.cfg.Constraints); err != nil {
		w.camera.Stop()
		return w.toError(err)
	}

	w.mu.Lock()
	w.session.Stage = StageCameraActive
	w.mu.Unlock()
	w.logger.Info("[Session "+id+"] Camera active", "device", w.camera.DeviceID())
	return nil
}

// CapturePhoto drives CameraActive -> PhotoCaptured. The camera stream is
// released immediately after a successful capture: the preview is not needed
// once a still frame is taken.
func (w *Workflow) CapturePhoto() error {
	w.mu.Lock()
	if w.session.Stage != StageCameraActive {
		w.mu.Unlock()
		return ErrInvalidStage
	}
	w.mu.Unlock()

	id := w.sessionID()
	frame, err := w.camera.Capture()
	if err != nil {
		w.camera.Stop()
		return w.toError(err)
	}
	w.camera.Stop()

	w.mu.Lock()
	w.session.Frame = frame
	w.session.Stage = StagePhotoCaptured
	w.mu.Unlock()

	w.logger.Info("[Session "+id+"] Photo captured",
		"width", frame.Width, "height", frame.Height)
	return nil
}

// CancelCamera drives CameraActive -> Idle, stopping the stream
func (w *Workflow) CancelCamera() error {
	w.mu.Lock()
	if w.session.Stage != StageCameraActive {
		w.mu.Unlock()
		return ErrInvalidStage
	}
	w.session.Stage = StageIdle
	w.mu.Unlock()

	w.camera.Stop()
	w.logger.Info("[Session " + w.sessionID() + "] Camera canceled")
	return nil
}

// Retake drives PhotoCaptured -> CameraActive: the captured frame is
// discarded and the camera-start transition re-runs
func (w *Workflow) Retake(ctx context.Context) error {
	w.mu.Lock()
	if w.session.Stage != StagePhotoCaptured {
		w.mu.Unlock()
		return ErrInvalidStage
	}
	if w.cameraStarting {
		w.mu.Unlock()
		return nil
	}
	w.cameraStarting = true
	w.session.Frame = nil
	w.session.Stage = StageIdle
	w.mu.Unlock()

	err := w.startCamera(ctx)

	w.mu.Lock()
	w.cameraStarting = false
	w.mu.Unlock()
	return err
}

// Process drives PhotoCaptured -> Processing -> Results|Error. The engine is
// initialized lazily on first use. The location lookup runs concurrently with
// recognition; both settle before the stage advances, and the recognition
// outcome decides it.
func (w *Workflow) Process(ctx context.Context) error {
	w.mu.Lock()
	if w.session.Stage != StagePhotoCaptured {
		w.mu.Unlock()
		return ErrInvalidStage
	}
	frame := w.session.Frame
	w.session.Stage = StageProcessing
	w.mu.Unlock()

	id := w.sessionID()

	if !w.engine.Ready() {
		w.logger.Info("[Session " + id + "] Step 3: Initializing OCR engine (first use)")
		if err := w.engine.Initialize(ctx); err != nil {
			return w.toError(err)
		}
	}

	w.logger.Info("[Session " + id + "] Step 4: Recognizing text, locating concurrently")
	locCh := make(chan *Position, 1)
	go w.lookupLocation(ctx, locCh)

	result, err := w.engine.Recognize(ctx, frame, w.cfg.Language)

	// Location settles regardless of the recognition outcome; it never
	// blocks past its own timeout and never fails the transition.
	location := <-locCh

	if err != nil {
		return w.toError(err)
	}

	tokens := extract.NumbersMin(result.Text, w.cfg.MinTokenRun)

	w.mu.Lock()
	w.session.Result = result
	w.session.Tokens = tokens
	w.session.Location = location
	w.session.Stage = StageResults
	w.mu.Unlock()

	w.logger.Info("[Session "+id+"] Processing complete",
		"confidence", result.Confidence, "tokens", len(tokens),
		"located", location != nil)
	return nil
}

// lookupLocation resolves the device position, best-effort. It always sends
// exactly once: a failure or timeout yields nil, never an error.
func (w *Workflow) lookupLocation(ctx context.Context, out chan<- *Position) {
	if w.locator == nil {
		out <- nil
		return
	}

	type outcome struct {
		pos Position
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		pos, err := w.locator.CurrentPosition(ctx)
		ch <- outcome{pos: pos, err: err}
	}()

	timer := w.clk.Timer(w.cfg.LocationTimeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		if o.err != nil {
			w.logger.Warn("Location lookup failed", "error", o.err)
			out <- nil
			return
		}
		out <- &o.pos
	case <-timer.C:
		w.logger.Warn("Location lookup timed out", "timeout", w.cfg.LocationTimeout)
		out <- nil
	case <-ctx.Done():
		out <- nil
	}
}

// Reset returns the workflow to Idle from any stage except mid-flight
// Processing, clearing every per-session field
func (w *Workflow) Reset() error {
	w.mu.Lock()
	if w.session.Stage == StageProcessing {
		w.mu.Unlock()
		return ErrInvalidStage
	}
	w.session = Session{Stage: StageIdle}
	w.mu.Unlock()

	w.camera.Stop()
	return nil
}

// CopyText writes the full recognized text to the clipboard. Available only
// in Results; failure is reported but never changes state.
func (w *Workflow) CopyText(ctx context.Context) error {
	w.mu.Lock()
	if w.session.Stage != StageResults {
		w.mu.Unlock()
		return ErrInvalidStage
	}
	text := w.session.Result.Text
	w.mu.Unlock()

	return w.writeClipboard(ctx, text)
}

// CopyToken writes one extracted token to the clipboard. Available only in
// Results.
func (w *Workflow) CopyToken(ctx context.Context, index int) error {
	w.mu.Lock()
	if w.session.Stage != StageResults {
		w.mu.Unlock()
		return ErrInvalidStage
	}
	if index < 0 || index >= len(w.session.Tokens) {
		w.mu.Unlock()
		return stderrors.New("workflow: token index out of range")
	}
	token := w.session.Tokens[index]
	w.mu.Unlock()

	return w.writeClipboard(ctx, token)
}

func (w *Workflow) writeClipboard(ctx context.Context, text string) error {
	if w.clipboard == nil {
		return stderrors.New("workflow: clipboard unavailable")
	}
	if err := w.clipboard.WriteText(ctx, text); err != nil {
		w.logger.Warn("Clipboard write failed", "error", err)
		return err
	}
	return nil
}

// Close releases the recognition worker and any camera resources. Used at
// application shutdown; idempotent.
func (w *Workflow) Close() {
	w.camera.Stop()
	w.engine.Terminate()
}

// toError stops the camera, stamps the session ID onto taxonomy errors, and
// surfaces the Error stage with a user-facing message. Faults outside the
// taxonomy get the generic message and are logged, never re-thrown past the
// workflow.
func (w *Workflow) toError(err error) error {
	w.camera.Stop()

	id := w.sessionID()
	var se *errors.ScanError
	if stderrors.As(err, &se) {
		if se.SessionID == "" {
			se.SessionID = id
		}
		w.logger.Error("[Session "+id+"] Pipeline error",
			"code", se.Code, "error", err)
	} else {
		w.logger.Error("[Session "+id+"] Unexpected pipeline error", "error", err)
	}

	w.mu.Lock()
	w.session.Stage = StageError
	w.session.ErrorMessage = errors.UserMessage(err)
	w.mu.Unlock()
	return err
}

func (w *Workflow) sessionID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.ID
}
