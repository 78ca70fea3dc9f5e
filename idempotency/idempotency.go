// Package idempotency guarantees at-most-one committed side effect per
// caller-supplied Idempotency-Key, regardless of retries or concurrent
// duplicate submissions. The winning request receives a Proceed decision and
// must settle the record via Complete or Fail; everyone else gets a replay,
// a retry-later, or a conflict.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Store-level errors.
var (
	// ErrKeyExists is returned by Store.Insert when the key is already taken
	// (unique-constraint rejection). Begin turns this into a duplicate decision.
	ErrKeyExists = errors.New("idempotency: key already exists")
	// ErrNotFound is returned by Store.Find for an unknown key.
	ErrNotFound = errors.New("idempotency: record not found")
	// ErrState signals misuse of the Complete/Fail contract: the record is not
	// PENDING, so the caller never held the Proceed for it (or settled twice).
	ErrState = errors.New("idempotency: record not in pending state")
)

// Outcome enumerates the four possible answers to Begin.
type Outcome int

const (
	// Proceed: the caller won the atomic create and must run the transaction,
	// then call Complete or Fail.
	Proceed Outcome = iota
	// DuplicateCompleted: the same request already committed; replay the stored
	// result, do not re-execute.
	DuplicateCompleted
	// DuplicateInFlight: an identical request is still running; the caller must
	// surface a retry-later response, never start a second transaction.
	DuplicateInFlight
	// Conflict: the key was reused with a different payload. Client error.
	Conflict
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case DuplicateCompleted:
		return "duplicate_completed"
	case DuplicateInFlight:
		return "duplicate_in_flight"
	case Conflict:
		return "conflict"
	}
	return "unknown"
}

// Decision is Begin's answer. ResultReference is set only for DuplicateCompleted.
type Decision struct {
	Outcome         Outcome
	ResultReference string
}

// Fingerprint derives the request identity hash used to detect key reuse with
// a different payload. Hashing method|path|user|body keeps keys scoped to the
// authenticated user without a separate scope column.
func Fingerprint(method, path, userID string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write([]byte(userID))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
