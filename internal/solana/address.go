package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidateAddress checks that s is a base58-encoded 32-byte public key.
func ValidateAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("invalid base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("invalid public key length: %d", len(raw))
	}
	return nil
}

// IsOnCurve reports whether the address decodes to a valid ed25519 curve
// point. Keypair wallets are on-curve; program derived addresses are not.
func IsOnCurve(address string) bool {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// DerivePDA derives a Program Derived Address using the Solana algorithm:
// seeds + bump + program ID + marker, hashed with SHA256, taking the first
// bump that lands off the ed25519 curve.
func DerivePDA(seeds [][]byte, programID string) (string, error) {
	program, err := base58.Decode(programID)
	if err != nil {
		return "", fmt.Errorf("decode program id: %w", err)
	}

	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, program...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if _, err := new(edwards25519.Point).SetBytes(hash[:]); err != nil {
			return base58.Encode(hash[:]), nil
		}
	}

	return "", fmt.Errorf("no valid bump seed found")
}

// MetadataPDA returns the Metaplex token-metadata account address for a
// mint.
func MetadataPDA(mint string) (string, error) {
	mintRaw, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}
	programRaw, err := base58.Decode(TokenMetadataProgram)
	if err != nil {
		return "", fmt.Errorf("decode metadata program: %w", err)
	}

	seeds := [][]byte{
		[]byte("metadata"),
		programRaw,
		mintRaw,
	}
	return DerivePDA(seeds, TokenMetadataProgram)
}
