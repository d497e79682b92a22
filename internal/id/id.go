// Package id generates document identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// alphabet matches the auto-id alphabet of hosted document stores, so ids are
// safe to use in URLs and as invite codes.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Size is the length of generated document ids.
const Size = 20

// Generate returns a random 20-character alphanumeric id.
func Generate() (string, error) {
	s, err := gonanoid.Generate(alphabet, Size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return s, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate() string {
	s, err := Generate()
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return s
}

// Valid reports whether s looks like a generated id.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
