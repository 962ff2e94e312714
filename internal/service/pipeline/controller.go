package pipeline

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"phototriage/internal/apperror"
	"phototriage/internal/config"
	"phototriage/internal/logger"
	"phototriage/internal/model"
	"phototriage/internal/service/capture"
	"phototriage/internal/service/imageproc"
	"phototriage/internal/service/storage"
)

// Detector answers whether an image contains at least one face.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (bool, error)
}

// Writer persists an accepted image under a derived name and returns the
// name actually used and the full path.
type Writer interface {
	Write(img image.Image, name string) (string, string, error)
}

// Ledger records a saved image.
type Ledger interface {
	AddPhoto(filePath string) (*model.Photo, error)
}

// Options tune a Controller.
type Options struct {
	ScratchDir      string
	RotationDegrees float64
	Threshold       float64
	OverlapPolicy   string
	PreferExifTime  bool
}

// OptionsFromConfig extracts controller options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ScratchDir:      cfg.ScratchDirectory,
		RotationDegrees: cfg.RotationDegrees,
		Threshold:       cfg.ContrastThreshold,
		OverlapPolicy:   cfg.OverlapPolicy,
		PreferExifTime:  cfg.PreferExifTime,
	}
}

// Controller runs capture attempts one at a time:
// capture, normalize, score, gate, classify, name, write, record.
type Controller struct {
	source   capture.Source
	detector Detector
	writer   Writer
	ledger   Ledger
	gate     imageproc.Gate
	opts     Options
	logger   *logger.Logger
	now      func() time.Time

	mu        sync.Mutex
	running   bool
	pending   bool
	closed    bool
	state     State
	last      *Result
	counts    map[State]int64
	observers []func(Result)
	inflight  sync.WaitGroup
}

// NewController wires the pipeline stages together.
func NewController(source capture.Source, detector Detector, writer Writer, ledger Ledger, opts Options, logger *logger.Logger) *Controller {
	if opts.OverlapPolicy == "" {
		opts.OverlapPolicy = config.OverlapDrop
	}
	if opts.ScratchDir == "" {
		opts.ScratchDir = os.TempDir()
	}
	return &Controller{
		source:   source,
		detector: detector,
		writer:   writer,
		ledger:   ledger,
		gate:     imageproc.NewGate(opts.Threshold),
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		state:    StateIdle,
		counts:   make(map[State]int64),
	}
}

// Subscribe registers fn to receive every attempt result. fn runs on the
// attempt's goroutine and must not block.
func (c *Controller) Subscribe(fn func(Result)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// State returns the stage of the attempt in flight, or StateIdle.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastResult returns the most recent result, if any.
func (c *Controller) LastResult() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	r := *c.last
	return &r
}

// Counts returns how many attempts ended in each terminal state.
func (c *Controller) Counts() map[State]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[State]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Fire starts an attempt in the background.
func (c *Controller) Fire(ctx context.Context) {
	go c.Run(ctx)
}

// Run performs one attempt and returns its result. If another attempt is in
// flight the trigger is dropped, or under the queue policy remembered so
// exactly one more attempt follows the current one.
func (c *Controller) Run(ctx context.Context) Result {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.skipped(StateDropped, "controller is shutting down")
	}
	if c.running {
		if c.opts.OverlapPolicy == config.OverlapQueue && !c.pending {
			c.pending = true
			c.mu.Unlock()
			c.logger.Info("Attempt in progress, trigger queued")
			return c.skipped(StateQueued, "")
		}
		c.mu.Unlock()
		c.logger.Warning("Attempt in progress, trigger dropped")
		return c.skipped(StateDropped, "attempt already in progress")
	}
	c.running = true
	c.inflight.Add(1)
	c.mu.Unlock()

	defer c.inflight.Done()

	res := c.attempt(ctx)
	for {
		c.mu.Lock()
		if !c.pending || c.closed {
			c.pending = false
			c.running = false
			c.state = StateIdle
			c.mu.Unlock()
			return res
		}
		c.pending = false
		c.mu.Unlock()

		c.attempt(ctx)
	}
}

// Shutdown refuses new attempts and waits for the one in flight to finish
// or ctx to end.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) skipped(state State, reason string) Result {
	now := c.now()
	res := Result{State: state, Stage: state, StartedAt: now, FinishedAt: now, Error: reason}
	c.mu.Lock()
	c.counts[state]++
	c.mu.Unlock()
	return res
}

func (c *Controller) enter(res *Result, state State) {
	res.Stage = state
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// attempt runs the stages in order. Any failure ends only this attempt.
func (c *Controller) attempt(ctx context.Context) Result {
	res := Result{AttemptID: uuid.NewString(), StartedAt: c.now()}

	c.enter(&res, StateCapturing)
	destination := filepath.Join(c.opts.ScratchDir, "capture_"+res.AttemptID+".jpg")
	defer os.Remove(destination)

	if err := os.MkdirAll(c.opts.ScratchDir, 0700); err != nil {
		return c.abort(res, apperror.NewSourceUnavailable("failed to create scratch directory", err))
	}

	capturedPath, err := c.source.RequestCapture(ctx, destination)
	if err != nil {
		return c.abort(res, apperror.NewSourceUnavailable("capture failed", err))
	}
	if capturedPath != destination && filepath.Dir(capturedPath) == filepath.Clean(c.opts.ScratchDir) {
		defer os.Remove(capturedPath)
	}
	res.CapturedAt = c.now()

	img, err := imageproc.Load(capturedPath)
	if err != nil {
		return c.abort(res, err)
	}
	if c.opts.PreferExifTime {
		if ts, err := capture.TakenAt(capturedPath); err == nil {
			res.CapturedAt = ts
		}
	}

	c.enter(&res, StateNormalizing)
	normalized := imageproc.Normalize(img, c.opts.RotationDegrees)

	c.enter(&res, StateScoring)
	score, err := imageproc.Contrast(normalized)
	if err != nil {
		return c.abort(res, err)
	}
	res.Contrast = score

	if !c.gate.Accept(score) {
		res.State = StateRejected
		res.Kind = apperror.TypeLowContrast
		c.logger.Info("Attempt %s rejected: contrast %.2f below %.2f", res.AttemptID, score, c.gate.Threshold)
		return c.finish(res)
	}

	c.enter(&res, StateClassifying)
	face, err := c.detector.Detect(ctx, normalized)
	if err != nil {
		return c.abort(res, err)
	}
	res.FaceDetected = face

	c.enter(&res, StateNaming)
	name := storage.DeriveName(face, res.CapturedAt)

	c.enter(&res, StateWriting)
	savedName, savedPath, err := c.writer.Write(normalized, name)
	if err != nil {
		return c.abort(res, err)
	}
	res.FileName = savedName
	res.Path = savedPath

	c.enter(&res, StateRecording)
	photo, err := c.ledger.AddPhoto(savedName)
	if err != nil {
		if !apperror.IsType(err, apperror.TypePersistenceFailure) {
			err = apperror.NewPersistenceFailure("failed to record "+savedName, err)
		}
		c.logger.Orphan(savedPath, err)
		return c.abort(res, err)
	}

	res.Photo = photo
	res.State = StateDone
	c.logger.Info("Attempt %s saved %s (contrast %.2f, face %v)", res.AttemptID, savedName, score, face)
	return c.finish(res)
}

func (c *Controller) abort(res Result, err error) Result {
	res.State = StateAborted
	res.Kind = apperror.TypeOf(err)
	res.Err = err
	res.Error = err.Error()
	res.Photo = nil
	c.logger.Error("Attempt %s aborted at %s: %v", res.AttemptID, res.Stage, err)
	return c.finish(res)
}

func (c *Controller) finish(res Result) Result {
	res.FinishedAt = c.now()

	c.mu.Lock()
	c.counts[res.State]++
	last := res
	c.last = &last
	observers := append([]func(Result){}, c.observers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(res)
	}
	return res
}
