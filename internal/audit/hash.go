package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// canonicalHash returns the SHA-256 hex digest of the payload's JSON
// serialization. encoding/json emits map keys in sorted order at every
// nesting level, which makes the serialization deterministic.
func canonicalHash(payload map[string]any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serialize hash payload: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// contentHash hashes a raw content blob.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// normalizeData round-trips event data through JSON so the in-memory value
// matches what storage will hand back (numbers become float64, structs
// become maps). Hashing the normalized form keeps VerifyIntegrity true
// after a store round trip.
func normalizeData(data map[string]any) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("serialize event data: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("normalize event data: %w", err)
	}
	return out, nil
}
