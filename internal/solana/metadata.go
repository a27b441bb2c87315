package solana

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// TokenMetadata holds the name and symbol parsed from a Metaplex
// token-metadata account.
type TokenMetadata struct {
	Name   string
	Symbol string
}

// Metadata account prefix: key (1) + update authority (32) + mint (32).
const metadataHeaderSize = 65

// ParseTokenMetadata decodes the borsh-encoded name and symbol fields of a
// Metaplex metadata account. The on-chain strings are length-prefixed and
// null-padded to their fixed capacity.
func ParseTokenMetadata(data []byte) (*TokenMetadata, error) {
	offset := metadataHeaderSize
	name, offset, err := readBorshString(data, offset)
	if err != nil {
		return nil, fmt.Errorf("parse name: %w", err)
	}
	symbol, _, err := readBorshString(data, offset)
	if err != nil {
		return nil, fmt.Errorf("parse symbol: %w", err)
	}
	return &TokenMetadata{Name: name, Symbol: symbol}, nil
}

func readBorshString(data []byte, offset int) (string, int, error) {
	if len(data) < offset+4 {
		return "", 0, fmt.Errorf("truncated at offset %d", offset)
	}
	length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	if length < 0 || len(data) < offset+length {
		return "", 0, fmt.Errorf("string of %d bytes exceeds account size", length)
	}
	raw := data[offset : offset+length]
	return string(bytes.TrimRight(raw, "\x00")), offset + length, nil
}
