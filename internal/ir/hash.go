package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainConfig     = "scopecard/config/v1"
	DomainAssessment = "scopecard/assessment/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ConfigHash identifies a session configuration, including attached overrides.
// Reports carry it so a reader can tell which configuration produced them.
func ConfigHash(rules []SessionRule) (string, error) {
	canonical, err := MarshalCanonical(rules)
	if err != nil {
		return "", fmt.Errorf("ConfigHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}

// AssessmentHash identifies a computed result. Identical inputs yield
// identical hashes, which is how purity is checked end to end.
func AssessmentHash(risk RiskAssessment, sessions []Session) (string, error) {
	canonical, err := MarshalCanonical(struct {
		Risk     RiskAssessment `json:"risk"`
		Sessions []Session      `json:"sessions"`
	}{risk, sessions})
	if err != nil {
		return "", fmt.Errorf("AssessmentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAssessment, canonical), nil
}

// MustConfigHash is like ConfigHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustConfigHash(rules []SessionRule) string {
	h, err := ConfigHash(rules)
	if err != nil {
		panic(err)
	}
	return h
}
