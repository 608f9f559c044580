// Package enroll implements the enrollment pipeline: a short-circuiting
// chain of quality-gate stages applied to each capture, accumulating
// embeddings until the configured capture count is reached, then persisting
// them through the template store.
package enroll

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/detect"
	"github.com/dmitrijs2005/facelock/internal/feature"
	"github.com/dmitrijs2005/facelock/internal/imaging"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/templates"
)

// Config tunes the enrollment pipeline. Zero values fall back to defaults.
type Config struct {
	// Captures is the number of accepted captures per enrollment (default 5).
	Captures int
	// MaxYaw and MaxRoll bound the head pose in degrees; captures beyond
	// either limit are rejected (defaults 20 and 15).
	MaxYaw  float64
	MaxRoll float64
}

func (c Config) withDefaults() Config {
	if c.Captures <= 0 {
		c.Captures = 5
	}
	if c.MaxYaw <= 0 {
		c.MaxYaw = 20
	}
	if c.MaxRoll <= 0 {
		c.MaxRoll = 15
	}
	return c
}

// RejectionError reports a capture that failed a quality gate. Rejections
// are user-actionable: surface the message and retry the capture, do not
// abandon the enrollment.
type RejectionError struct {
	Stage   string
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("capture rejected at %s: %s", e.Stage, e.Message)
}

// Service runs enrollments against a camera/detector pair and a template
// store.
type Service struct {
	camera   detect.Camera
	detector detect.Detector
	store    *templates.Store
	cfg      Config
	log      logging.Logger
}

func NewService(camera detect.Camera, detector detect.Detector, store *templates.Store, cfg Config, log logging.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{camera: camera, detector: detector, store: store, cfg: cfg.withDefaults(), log: log}
}

// captureState carries one capture through the stage chain.
type captureState struct {
	raw       []byte
	img       image.Image
	detection detect.Result
	canonical *imaging.CanonicalImage
	embedding feature.Embedding
}

type stage func(ctx context.Context, c *captureState) error

// ProcessImage runs the full per-capture chain — decode, face detection,
// pose gate, preprocess, extract — on raw image bytes and returns the
// embedding. Detector indeterminacy passes the gate: optional signals that
// are absent never block enrollment, mirroring the verification policy.
func (s *Service) ProcessImage(ctx context.Context, raw []byte) (feature.Embedding, error) {
	c := &captureState{raw: raw}

	for _, st := range []stage{s.stageDecode, s.stageDetect, s.stagePose, s.stageCrop, s.stageExtract} {
		if err := st(ctx, c); err != nil {
			return nil, err
		}
	}
	return c.embedding, nil
}

// Enroll captures cfg.Captures accepted images, extracts an embedding from
// each, and saves them as the user's enrollment — replacing any prior one.
// A rejected capture fails the operation with a RejectionError describing
// the stage; callers retry with a better capture.
func (s *Service) Enroll(ctx context.Context, userID string) (*templates.EnrollmentRecord, error) {
	embeddings, err := s.Collect(ctx, s.cfg.Captures, nil)
	if err != nil {
		return nil, err
	}
	return s.store.SaveEmbeddings(ctx, userID, embeddings)
}

// Collect acquires n accepted captures and returns their embeddings without
// persisting anything. The optional progress callback fires after each
// accepted capture.
func (s *Service) Collect(ctx context.Context, n int, progress func(done int)) ([]feature.Embedding, error) {
	embeddings := make([]feature.Embedding, 0, n)
	for i := 0; i < n; i++ {
		raw, err := s.camera.Capture(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrCapture, err)
		}

		emb, err := s.ProcessImage(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("capture %d of %d: %w", i+1, n, err)
		}
		embeddings = append(embeddings, emb)
		if progress != nil {
			progress(i + 1)
		}
	}
	return embeddings, nil
}

func (s *Service) stageDecode(ctx context.Context, c *captureState) error {
	img, err := imaging.Decode(c.raw)
	if err != nil {
		return err
	}
	c.img = img
	return nil
}

func (s *Service) stageDetect(ctx context.Context, c *captureState) error {
	result, err := s.detector.Detect(ctx, c.raw)
	if err != nil {
		s.log.Warn(ctx, "detector error treated as indeterminate", "err", err)
		c.detection = detect.Indeterminate()
		return nil
	}
	if result.Outcome == detect.OutcomeNotFound {
		return &RejectionError{Stage: "detect", Message: "no face in frame"}
	}
	c.detection = result
	return nil
}

func (s *Service) stagePose(ctx context.Context, c *captureState) error {
	face := c.detection.Face
	if face == nil || !face.HasPose {
		return nil // pose unavailable: indeterminate, not a rejection
	}
	if math.Abs(face.Yaw) > s.cfg.MaxYaw {
		return &RejectionError{Stage: "pose", Message: fmt.Sprintf("head turned too far (yaw %.1f°)", face.Yaw)}
	}
	if math.Abs(face.Roll) > s.cfg.MaxRoll {
		return &RejectionError{Stage: "pose", Message: fmt.Sprintf("head tilted too far (roll %.1f°)", face.Roll)}
	}
	return nil
}

func (s *Service) stageCrop(ctx context.Context, c *captureState) error {
	if face := c.detection.Face; face != nil && face.HasBox {
		c.img = imaging.CropFaceRegion(c.img, face.Box)
	}
	return nil
}

func (s *Service) stageExtract(ctx context.Context, c *captureState) error {
	c.canonical = imaging.PreprocessImage(c.img)
	c.embedding = feature.Extract(c.canonical)
	return nil
}
