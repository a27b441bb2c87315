package solana

import (
	"context"
	"errors"
)

// ErrRateLimited marks upstream 429 responses. Callers map it to their own
// status codes; the client retries it internally up to the retry ceiling.
var ErrRateLimited = errors.New("rate limited (429)")

// RPCClient defines the Solana RPC HTTP interface used by the analysis
// pipeline.
type RPCClient interface {
	// GetSignaturesForAddress retrieves signatures for an address with
	// pagination, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetParsedTransaction retrieves a transaction with its pre/post token
	// balance snapshots. Returns nil when the transaction is not found.
	GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error)

	// GetAccountInfo retrieves raw account info. Returns nil when the
	// account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetBalance retrieves the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetMintInfo retrieves and parses the SPL mint account: UI supply,
	// decimals, and whether mint/freeze authorities are still set.
	GetMintInfo(ctx context.Context, mint string) (*MintInfo, error)

	// GetProgramAccounts retrieves accounts owned by a program, filtered
	// server-side.
	GetProgramAccounts(ctx context.Context, programID string, filters []AccountFilter) ([]ProgramAccount, error)
}
