package core

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// NormalizeText collapses all runs of whitespace to single spaces and trims
// the ends. Hashing normalized text means purely cosmetic re-cleaning of a
// page does not change any content hash.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// HashText computes the content hash of text after normalization.
// Returns a fixed-length hex digest.
func HashText(text string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(NormalizeText(text)))
	return hex.EncodeToString(h.Sum(nil))
}
