package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainFrame      = "triggertree/frame/v1"
	DomainTriggerSet = "triggertree/triggerset/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FrameHash computes the content-addressed ID of a frame. Two frames with
// the same canonical JSON share a hash, so match events recorded against
// identical memory snapshots can be grouped.
func FrameHash(frame IRObject) (string, error) {
	canonical, err := MarshalCanonical(frame)
	if err != nil {
		return "", fmt.Errorf("FrameHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFrame, canonical), nil
}

// TriggerSetHash computes a content-addressed ID for a compiled trigger set.
// Trigger order is significant since it decides match ordering.
func TriggerSetHash(set *TriggerSet) (string, error) {
	triggers := make(IRArray, 0, len(set.Triggers))
	for _, t := range set.Triggers {
		quantifiers := make(IRArray, 0, len(t.Quantifiers))
		for _, q := range t.Quantifiers {
			mappings := make(IRArray, len(q.Mappings))
			for i, m := range q.Mappings {
				mappings[i] = IRString(m)
			}
			quantifiers = append(quantifiers, IRObject{
				"binding":  IRString(q.Binding),
				"kind":     IRString(q.Kind),
				"mappings": mappings,
			})
		}
		triggers = append(triggers, IRObject{
			"id":          IRString(t.ID),
			"when":        IRString(t.When),
			"action":      t.Action,
			"quantifiers": quantifiers,
		})
	}
	comparers := make(IRObject, len(set.Comparers))
	for prop, name := range set.Comparers {
		comparers[prop] = IRString(name)
	}

	canonical, err := MarshalCanonical(IRObject{
		"triggers":  triggers,
		"comparers": comparers,
	})
	if err != nil {
		return "", fmt.Errorf("TriggerSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTriggerSet, canonical), nil
}
