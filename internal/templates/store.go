package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/cryptox"
	"github.com/dmitrijs2005/facelock/internal/feature"
	"github.com/dmitrijs2005/facelock/internal/logging"
)

const (
	templateKeyPrefix = "biometric_template_"
	enrolledKeyPrefix = "biometric_enrolled_"
	secretKeyPrefix   = "fallback_secret_"
)

// normTolerance bounds how far an embedding's Euclidean norm may drift from 1
// before the store rejects it as a contract violation.
const normTolerance = 1e-6

// Store manages the enrollment record lifecycle. Save/read/delete on the
// same user id are serialized through a per-user mutex — last-writer-wins
// overwrite is not crash-consistent against concurrent writers. Cross-user
// operations proceed independently.
type Store struct {
	storage    Storage
	iterations int
	log        logging.Logger

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewStore builds a Store over the given storage collaborator. iterations is
// the PBKDF2 cost (values below the cryptox floor are raised to it). A nil
// logger discards output.
func NewStore(storage Storage, iterations int, log logging.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		storage:    storage,
		iterations: iterations,
		log:        log,
		userLocks:  make(map[string]*sync.Mutex),
	}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

// SaveEmbeddings serializes the embedding set, encrypts it under the user's
// key context, and persists the record — replacing any prior enrollment for
// that user wholesale. At least one embedding is required, and every
// embedding must be L2-normalized.
func (s *Store) SaveEmbeddings(ctx context.Context, userID string, embeddings []feature.Embedding) (*EnrollmentRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id must not be empty")
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("at least one embedding is required")
	}
	for i, e := range embeddings {
		if len(e) != feature.Dim {
			return nil, fmt.Errorf("%w: embedding %d has %d dims, want %d",
				common.ErrDimensionMismatch, i, len(e), feature.Dim)
		}
		if math.Abs(e.Norm()-1) > normTolerance {
			return nil, fmt.Errorf("embedding %d is not L2-normalized (norm=%g)", i, e.Norm())
		}
	}

	plain := storedTemplate{Embeddings: make([][]float64, len(embeddings))}
	for i, e := range embeddings {
		plain.Embeddings[i] = e.Clone()
	}
	payload, err := json.Marshal(plain)
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}

	blob, err := cryptox.Encrypt(payload, userID, s.iterations)
	if err != nil {
		return nil, fmt.Errorf("encrypting template: %w", err)
	}

	record := &EnrollmentRecord{
		UserID:            userID,
		EncryptedTemplate: blob,
		CreatedAt:         time.Now().UTC(),
		EmbeddingCount:    len(embeddings),
	}
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("serializing record: %w", err)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	err = s.storage.SetAll(ctx, map[string]string{
		templateKeyPrefix + userID: string(recordJSON),
		enrolledKeyPrefix + userID: "true",
	})
	if err != nil {
		return nil, fmt.Errorf("saving enrollment: %w", err)
	}

	s.log.Info(ctx, "enrollment saved", "user", userID, "embeddings", len(embeddings))
	return record, nil
}

// GetRecord returns the enrollment record with its plaintext-visible metadata
// without decrypting the template. Absent records yield common.ErrNotEnrolled.
func (s *Store) GetRecord(ctx context.Context, userID string) (*EnrollmentRecord, error) {
	raw, err := s.storage.Get(ctx, templateKeyPrefix+userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotEnrolled
		}
		return nil, fmt.Errorf("reading record: %w", err)
	}

	var record EnrollmentRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// A record that exists but does not parse is store corruption, not
		// a missing enrollment.
		return nil, fmt.Errorf("%w: malformed enrollment record: %v", common.ErrDecryption, err)
	}
	return &record, nil
}

// GetEmbeddings decrypts and returns the user's enrolled embeddings.
// Never-enrolled users yield common.ErrNotEnrolled; a present record that
// fails to decrypt yields common.ErrDecryption — the two must stay
// distinguishable.
func (s *Store) GetEmbeddings(ctx context.Context, userID string) ([]feature.Embedding, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.GetRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload, err := cryptox.Decrypt(record.EncryptedTemplate, userID, s.iterations)
	if err != nil {
		return nil, fmt.Errorf("decrypting template for %s: %w", userID, err)
	}

	var plain storedTemplate
	if err := json.Unmarshal(payload, &plain); err != nil {
		// Wrong key context or corrupt ciphertext decrypts to garbage that
		// then fails to parse.
		return nil, fmt.Errorf("%w: template payload does not parse", common.ErrDecryption)
	}

	out := make([]feature.Embedding, len(plain.Embeddings))
	for i, v := range plain.Embeddings {
		out[i] = feature.Embedding(v)
	}
	return out, nil
}

// IsEnrolled reports whether the user has a live enrollment.
func (s *Store) IsEnrolled(ctx context.Context, userID string) (bool, error) {
	return s.storage.Contains(ctx, enrolledKeyPrefix+userID)
}

// DeleteEnrollment removes the user's record and enrollment flag.
func (s *Store) DeleteEnrollment(ctx context.Context, userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.storage.Remove(ctx, templateKeyPrefix+userID); err != nil {
		return fmt.Errorf("removing template: %w", err)
	}
	if err := s.storage.Remove(ctx, enrolledKeyPrefix+userID); err != nil {
		return fmt.Errorf("removing enrollment flag: %w", err)
	}
	s.log.Info(ctx, "enrollment deleted", "user", userID)
	return nil
}

// SetFallbackSecret stores the hash of the user's fallback secret. Only the
// hash is persisted.
func (s *Store) SetFallbackSecret(ctx context.Context, userID, secret string) error {
	if userID == "" {
		return errors.New("empty user id")
	}
	if secret == "" {
		return errors.New("empty secret")
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.storage.Set(ctx, secretKeyPrefix+userID, cryptox.HashSecret(secret)); err != nil {
		return fmt.Errorf("saving fallback secret: %w", err)
	}
	s.log.Info(ctx, "fallback secret updated", "user", userID)
	return nil
}

// CheckFallbackSecret verifies a candidate secret against the stored hash.
// Returns common.ErrNotFound when no fallback secret is set for the user.
func (s *Store) CheckFallbackSecret(ctx context.Context, userID, secret string) (bool, error) {
	stored, err := s.storage.Get(ctx, secretKeyPrefix+userID)
	if err != nil {
		return false, err
	}
	return cryptox.VerifySecret(secret, stored), nil
}
