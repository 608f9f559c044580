// Package liveness implements the 3-phase verification protocol: an
// eyes-open capture, a timed blink challenge, and an identity match against
// the stored enrollment. The blink challenge is the anti-photo-replay check —
// a static photo cannot blink on command.
//
// When the detector cannot produce an eye-openness measurement the check is
// skipped and the session proceeds straight to identity matching (fail-open).
// Liveness is defense-in-depth here, not the sole gate; blocking legitimate
// users whenever the optional signal is unavailable was judged the worse
// trade. The policy is configurable for deployments that prefer fail-closed.
package liveness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/detect"
	"github.com/dmitrijs2005/facelock/internal/feature"
	"github.com/dmitrijs2005/facelock/internal/imaging"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/matching"
	"github.com/dmitrijs2005/facelock/internal/templates"
)

// Phase is the session state. Failed returns to Ready only through an
// explicit Reset; there is no automatic retry.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseCaptureOpen
	PhaseCountingDown
	PhaseCaptureBlink
	PhaseVerifying
	PhaseSuccess
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseCaptureOpen:
		return "capture_open"
	case PhaseCountingDown:
		return "counting_down"
	case PhaseCaptureBlink:
		return "capture_blink"
	case PhaseVerifying:
		return "verifying"
	case PhaseSuccess:
		return "success"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Eye-openness decision thresholds.
const (
	// EyesOpenMin: at CaptureOpen the eyes count as open when at least one
	// probability exceeds this.
	EyesOpenMin = 0.55
	// BlinkMax: at CaptureBlink a blink is detected when at least one
	// probability falls below this.
	BlinkMax = 0.35
)

// Config tunes a session. Zero values fall back to the defaults.
type Config struct {
	// Countdown is the total blink-challenge countdown (default 3s).
	Countdown time.Duration
	// Tick is the countdown granularity (default 1s). Tests shrink it.
	Tick time.Duration
	// FailOpen controls the indeterminate-detector policy (default true,
	// matching the documented behavior). Set to false to fail the session
	// instead of skipping the liveness check.
	FailOpen bool
}

func (c Config) withDefaults() Config {
	if c.Countdown <= 0 {
		c.Countdown = 3 * time.Second
	}
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	return c
}

// FailureError reports why a session ended in Failed, including the measured
// probabilities or similarity score when they drove the decision.
type FailureError struct {
	Phase   Phase
	Message string

	LeftEye  float64
	RightEye float64
	HasProbs bool

	Score    float64
	HasScore bool

	err error
}

func (e *FailureError) Error() string {
	switch {
	case e.HasProbs:
		return fmt.Sprintf("liveness failed at %s: %s (left=%.2f right=%.2f)", e.Phase, e.Message, e.LeftEye, e.RightEye)
	case e.HasScore:
		return fmt.Sprintf("liveness failed at %s: %s (score=%.4f)", e.Phase, e.Message, e.Score)
	default:
		return fmt.Sprintf("liveness failed at %s: %s", e.Phase, e.Message)
	}
}

func (e *FailureError) Unwrap() error { return e.err }

// ErrSessionNotReady is returned when Run is called on a session that is not
// in the Ready phase.
var ErrSessionNotReady = errors.New("session not in ready phase")

// ErrSessionReset is returned from Run when the session was reset while the
// protocol was in flight; any in-flight capture result is discarded.
var ErrSessionReset = errors.New("session reset")

// Session is one verification attempt for one user. It is transient: destroy
// it after completion and create a new one per attempt. Not re-entrant — one
// Run at a time.
type Session struct {
	ID string

	userID   string
	camera   detect.Camera
	detector detect.Detector
	store    *templates.Store
	matcher  *matching.Matcher
	cfg      Config
	log      logging.Logger

	// OnTransition, when set before Run, observes every phase change.
	OnTransition func(Phase)

	mu        sync.Mutex
	phase     Phase
	countdown int
	identity  []byte // retained eyes-open capture
	score     float64
	stop      chan struct{}
	stopped   bool
}

// NewSession wires a verification session. A nil logger discards output.
func NewSession(userID string, camera detect.Camera, detector detect.Detector, store *templates.Store, matcher *matching.Matcher, cfg Config, log logging.Logger) *Session {
	if log == nil {
		log = logging.Discard()
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		userID:   userID,
		camera:   camera,
		detector: detector,
		store:    store,
		matcher:  matcher,
		cfg:      cfg.withDefaults(),
		log:      log.With("session_id", id),
		phase:    PhaseReady,
		stop:     make(chan struct{}),
	}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Countdown returns the remaining whole seconds of the blink countdown.
func (s *Session) Countdown() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown
}

// Score returns the gallery-mean similarity computed during Verifying, valid
// once the session reached Success or Failed-with-score.
func (s *Session) Score() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Reset cancels any in-flight countdown, discards the retained identity
// image, and returns the session to Ready. Synchronous and idempotent;
// double-reset is not an error.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
	s.stop = make(chan struct{})
	s.stopped = false
	s.identity = nil
	s.countdown = 0
	s.score = 0
	s.setPhaseLocked(PhaseReady)
}

func (s *Session) setPhaseLocked(p Phase) {
	s.phase = p
	if s.OnTransition != nil {
		s.OnTransition(p)
	}
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPhaseLocked(p)
}

func (s *Session) fail(f *FailureError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.HasScore {
		s.score = f.Score
	}
	s.setPhaseLocked(PhaseFailed)
	return f
}

// Run drives the whole protocol. It returns nil when the session ends in
// Success, a *FailureError when it ends in Failed, and a plain error for
// cancellation or infrastructure failures. Run may be called only from the
// Ready phase.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return ErrSessionNotReady
	}
	stop := s.stop
	s.setPhaseLocked(PhaseCaptureOpen)
	s.mu.Unlock()

	// Phase 1: eyes-open capture.
	raw, err := s.camera.Capture(ctx)
	if cancelled(stop) {
		// The session was reset while the capture was in flight; the result
		// is discarded, not acted upon.
		return ErrSessionReset
	}
	if err != nil {
		return s.fail(&FailureError{Phase: PhaseCaptureOpen, Message: "capture failed", err: fmt.Errorf("%w: %v", common.ErrCapture, err)})
	}

	result := s.detectEyes(ctx, raw)
	left, right, ok := result.EyeProbs()
	switch {
	case !ok:
		// Indeterminate detector output.
		if !s.cfg.FailOpen {
			return s.fail(&FailureError{Phase: PhaseCaptureOpen, Message: "eye state unavailable and fail-open disabled"})
		}
		s.log.Warn(ctx, "eye state indeterminate, skipping liveness check", "phase", PhaseCaptureOpen.String())
		s.storeIdentity(raw)
		return s.verify(ctx)
	case left <= EyesOpenMin && right <= EyesOpenMin:
		return s.fail(&FailureError{
			Phase:   PhaseCaptureOpen,
			Message: "eyes not open",
			LeftEye: left, RightEye: right, HasProbs: true,
		})
	}
	s.storeIdentity(raw)

	// Phase 2: countdown, then blink capture.
	if err := s.runCountdown(ctx, stop); err != nil {
		return err
	}

	s.setPhase(PhaseCaptureBlink)
	blinkRaw, err := s.camera.Capture(ctx)
	if cancelled(stop) {
		return ErrSessionReset
	}
	if err != nil {
		return s.fail(&FailureError{Phase: PhaseCaptureBlink, Message: "capture failed", err: fmt.Errorf("%w: %v", common.ErrCapture, err)})
	}

	result = s.detectEyes(ctx, blinkRaw)
	left, right, ok = result.EyeProbs()
	switch {
	case !ok:
		if !s.cfg.FailOpen {
			return s.fail(&FailureError{Phase: PhaseCaptureBlink, Message: "eye state unavailable and fail-open disabled"})
		}
		s.log.Warn(ctx, "eye state indeterminate, skipping blink check", "phase", PhaseCaptureBlink.String())
	case left >= BlinkMax && right >= BlinkMax:
		return s.fail(&FailureError{
			Phase:   PhaseCaptureBlink,
			Message: "blink not detected",
			LeftEye: left, RightEye: right, HasProbs: true,
		})
	}

	return s.verify(ctx)
}

func cancelled(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

func (s *Session) detectEyes(ctx context.Context, raw []byte) detect.Result {
	result, err := s.detector.Detect(ctx, raw)
	if err != nil {
		// An unavailable detector is the canonical indeterminate case.
		s.log.Warn(ctx, "detector error treated as indeterminate", "err", err)
		return detect.Indeterminate()
	}
	return result
}

func (s *Session) storeIdentity(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = raw
}

// runCountdown ticks down the blink challenge at the configured granularity.
// Cancellation via ctx or Reset wins over the timer.
func (s *Session) runCountdown(ctx context.Context, stop <-chan struct{}) error {
	steps := int(s.cfg.Countdown / s.cfg.Tick)
	if steps < 1 {
		steps = 1
	}

	s.mu.Lock()
	s.countdown = steps
	s.setPhaseLocked(PhaseCountingDown)
	s.mu.Unlock()

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for remaining := steps; remaining > 0; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return ErrSessionReset
		case <-ticker.C:
			remaining--
			s.mu.Lock()
			s.countdown = remaining
			s.mu.Unlock()
		}
	}
	return nil
}

// verify runs the identity match on the retained eyes-open capture.
func (s *Session) verify(ctx context.Context) error {
	s.setPhase(PhaseVerifying)

	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()
	if identity == nil {
		return s.fail(&FailureError{Phase: PhaseVerifying, Message: "no identity capture retained"})
	}

	canonical, err := imaging.Preprocess(identity)
	if err != nil {
		return s.fail(&FailureError{Phase: PhaseVerifying, Message: "identity image does not decode", err: err})
	}
	probe := feature.Extract(canonical)

	gallery, err := s.store.GetEmbeddings(ctx, s.userID)
	if err != nil {
		if errors.Is(err, common.ErrNotEnrolled) {
			return s.fail(&FailureError{Phase: PhaseVerifying, Message: "not enrolled", err: common.ErrNotEnrolled})
		}
		// Storage corruption propagates as a hard failure of the attempt,
		// never silently as empty data.
		return fmt.Errorf("loading enrollment: %w", err)
	}

	decision := s.matcher.Decide(probe, gallery)

	s.mu.Lock()
	s.score = decision.Score
	s.mu.Unlock()

	if !decision.Accepted {
		return s.fail(&FailureError{
			Phase:   PhaseVerifying,
			Message: "similarity below threshold",
			Score:   decision.Score, HasScore: true,
		})
	}

	s.setPhase(PhaseSuccess)
	s.log.Info(ctx, "verification succeeded", "user", s.userID, "score", decision.Score)
	return nil
}
