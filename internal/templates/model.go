// Package templates implements the encrypted template store: the enrollment
// record lifecycle on top of an injected key-value storage collaborator and
// the cryptox encryption-at-rest primitives.
package templates

import "time"

// EnrollmentRecord associates a user with their encrypted embedding set.
// Everything except the template blob is plaintext-visible metadata so UIs
// can show enrollment state without decrypting anything.
//
// Exactly one live record exists per user id; re-enrollment overwrites, it
// never appends.
type EnrollmentRecord struct {
	UserID            string    `json:"userId"`
	EncryptedTemplate string    `json:"encryptedTemplate"`
	CreatedAt         time.Time `json:"createdAt"`
	EmbeddingCount    int       `json:"embeddingCount"`
}

// storedTemplate is the plaintext shape that gets encrypted into
// EncryptedTemplate.
type storedTemplate struct {
	Embeddings [][]float64 `json:"embeddings"`
}
