package venue

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Signer produces the authentication signature a venue's REST/WS order
// surface expects. Per-venue signature mechanics (EIP-712, Starknet
// SNIP-12, Schnorr over Goldilocks) are external collaborators the core
// does not implement; this interface is the shape the executor and order
// path consume from whichever concrete signer a venue's credentials need.
type Signer interface {
	// Sign returns the hex-encoded signature over message using the
	// signer's key material.
	Sign(message string) (string, error)
}

// HMACKeyedSigner signs requests with a keyed BLAKE2b MAC, for venues
// whose trading key is a raw shared secret rather than an EIP-712 or
// Starknet key.
type HMACKeyedSigner struct {
	key []byte
}

// NewHMACKeyedSigner builds a signer from a hex or raw secret. Hex secrets
// are decoded first; if decoding fails the string is used as raw key
// bytes, matching how most venues hand out secrets as ASCII hex but some
// (notably Starknet-family private keys fed through a generic HMAC-backed
// test venue) hand out raw bytes.
func NewHMACKeyedSigner(secret string) *HMACKeyedSigner {
	if decoded, err := hex.DecodeString(secret); err == nil && len(secret)%2 == 0 {
		return &HMACKeyedSigner{key: decoded}
	}
	return &HMACKeyedSigner{key: []byte(secret)}
}

// Sign returns the hex-encoded keyed BLAKE2b-256 MAC of message.
func (s *HMACKeyedSigner) Sign(message string) (string, error) {
	mac, err := blake2b.New256(s.key)
	if err != nil {
		return "", fmt.Errorf("venue: build blake2b mac: %w", err)
	}
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
