package chain

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address identifies an account on the ledger. The canonical form is
// "0x" followed by 40 lowercase hex characters. The zero value is the
// empty string and never owns anything.
type Address string

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ""
}

// AddressFromPubKey derives an address from an ed25519 public key:
// the last 20 bytes of keccak256(pubkey).
func AddressFromPubKey(pub ed25519.PublicKey) Address {
	sum := Keccak256(pub)
	return Address("0x" + hex.EncodeToString(sum[12:]))
}

// ParseAddress normalizes and validates a hex address string.
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "0x"))
	if len(s) != 40 {
		return "", fmt.Errorf("invalid address length: %d", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid address: %w", err)
	}
	return Address("0x" + s), nil
}

// FileID is the content-derived primary key into the DataVault.
type FileID [32]byte

// DeriveFileID hashes caller-supplied bytes into a FileID with
// keccak256, matching how clients derive ids from storage CIDs.
func DeriveFileID(data []byte) FileID {
	var id FileID
	copy(id[:], Keccak256(data))
	return id
}

// Hex returns the 0x-prefixed hex form of the id.
func (id FileID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// FileIDFromHex parses a 0x-prefixed 32-byte hex string.
func FileIDFromHex(s string) (FileID, error) {
	var id FileID
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, fmt.Errorf("invalid file id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid file id length: %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Keccak256 computes the legacy keccak-256 digest used for ids and
// address derivation.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
