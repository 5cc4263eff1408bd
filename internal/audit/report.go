package audit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "veritrail/pkg/domain-errors"
)

const attestationIssuer = "veritrail-audit"

// Attestor signs audit reports so downstream consumers can prove a report
// was produced by this service and has not been altered. The token carries
// a digest of the report, not the report itself.
type Attestor struct {
	secret []byte
	now    func() time.Time
}

// AttestorOption configures the Attestor.
type AttestorOption func(*Attestor)

// WithAttestorClock injects the time source.
func WithAttestorClock(now func() time.Time) AttestorOption {
	return func(a *Attestor) { a.now = now }
}

// NewAttestor creates a report attestor from the signing secret.
func NewAttestor(secret []byte, opts ...AttestorOption) (*Attestor, error) {
	if len(secret) < 16 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "attestation secret must be at least 16 bytes")
	}
	a := &Attestor{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func reportDigest(report Report) (string, error) {
	return canonicalHash(map[string]any{
		"session_id":      string(report.SessionID),
		"state":           string(report.State),
		"generated_at":    report.GeneratedAt.UTC().Format(time.RFC3339Nano),
		"event_count":     report.EventCount,
		"duration_ms":     report.Duration.Milliseconds(),
		"tokens_used":     report.TokensUsed,
		"hash_mismatches": report.HashMismatches,
	})
}

// Attest returns a signed HS256 JWT over the report digest.
func (a *Attestor) Attest(report Report) (string, error) {
	digest, err := reportDigest(report)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"iss":    attestationIssuer,
		"sub":    string(report.SessionID),
		"iat":    a.now().Unix(),
		"digest": digest,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign report attestation")
	}
	return signed, nil
}

// VerifyAttestation checks the token signature and that its digest matches
// the report as presented.
func (a *Attestor) VerifyAttestation(tokenString string, report Report) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(attestationIssuer))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "parse report attestation")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return dErrors.New(dErrors.CodeInvalidInput, "malformed attestation claims")
	}

	want, err := reportDigest(report)
	if err != nil {
		return err
	}
	if got, _ := claims["digest"].(string); got != want {
		return dErrors.New(dErrors.CodeInvalidInput, "attestation digest does not match report")
	}
	return nil
}
