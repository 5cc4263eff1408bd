package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	id "veritrail/pkg/domain"

	dErrors "veritrail/pkg/domain-errors"
)

const signingKeyInfo = "veritrail-audit-event-v1"

// Signer produces per-session HMAC-SHA256 signatures over event hashes.
// Session keys are derived from a single master secret with HKDF, so a
// leaked session key never exposes the master or sibling sessions.
type Signer struct {
	master []byte
}

// NewSigner creates a signer from the master secret.
func NewSigner(master []byte) (*Signer, error) {
	if len(master) < 16 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "audit signing secret must be at least 16 bytes")
	}
	s := &Signer{master: make([]byte, len(master))}
	copy(s.master, master)
	return s, nil
}

func (s *Signer) sessionKey(sessionID id.SessionID) ([]byte, error) {
	r := hkdf.New(sha256.New, s.master, []byte(sessionID), []byte(signingKeyInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return key, nil
}

// Sign returns the hex HMAC-SHA256 of the event hash under the session key.
func (s *Signer) Sign(sessionID id.SessionID, eventHash string) (string, error) {
	key, err := s.sessionKey(sessionID)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(eventHash))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether the signature matches the event hash for this
// session. Comparison is constant-time.
func (s *Signer) Verify(sessionID id.SessionID, eventHash, signature string) bool {
	want, err := s.Sign(sessionID, eventHash)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(want), []byte(signature))
}
