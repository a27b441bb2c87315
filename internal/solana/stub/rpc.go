// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"

	"github.com/McomEngine/solinsidefinder/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Signatures   map[string][]solana.SignatureInfo
	Transactions map[string]*solana.ParsedTransaction
	Accounts     map[string]*solana.AccountInfo
	Balances     map[string]uint64
	Mints        map[string]*solana.MintInfo
	Programs     map[string][]solana.ProgramAccount

	// Errs forces an error for a given method name.
	Errs map[string]error
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Signatures:   make(map[string][]solana.SignatureInfo),
		Transactions: make(map[string]*solana.ParsedTransaction),
		Accounts:     make(map[string]*solana.AccountInfo),
		Balances:     make(map[string]uint64),
		Mints:        make(map[string]*solana.MintInfo),
		Programs:     make(map[string][]solana.ProgramAccount),
		Errs:         make(map[string]error),
	}
}

// GetSignaturesForAddress returns stored signatures honoring
// Before/Until/Limit pagination. Stored signatures are newest first, so
// Until cuts the tail of the list.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	if err := c.Errs["getSignaturesForAddress"]; err != nil {
		return nil, err
	}

	sigs := c.Signatures[address]
	if opts != nil && opts.Before != "" {
		for i, s := range sigs {
			if s.Signature == opts.Before {
				sigs = sigs[i+1:]
				break
			}
		}
	}
	if opts != nil && opts.Until != "" {
		for i, s := range sigs {
			if s.Signature == opts.Until {
				sigs = sigs[:i]
				break
			}
		}
	}
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		sigs = sigs[:opts.Limit]
	}
	return sigs, nil
}

// GetParsedTransaction returns a stored transaction or nil.
func (c *RPCClient) GetParsedTransaction(_ context.Context, signature string) (*solana.ParsedTransaction, error) {
	if err := c.Errs["getTransaction"]; err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// GetAccountInfo returns a stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err := c.Errs["getAccountInfo"]; err != nil {
		return nil, err
	}
	return c.Accounts[pubkey], nil
}

// GetBalance returns a stored lamport balance.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	if err := c.Errs["getBalance"]; err != nil {
		return 0, err
	}
	return c.Balances[pubkey], nil
}

// GetMintInfo returns stored mint info or nil.
func (c *RPCClient) GetMintInfo(_ context.Context, mint string) (*solana.MintInfo, error) {
	if err := c.Errs["getMintInfo"]; err != nil {
		return nil, err
	}
	return c.Mints[mint], nil
}

// GetProgramAccounts returns stored accounts for a program.
func (c *RPCClient) GetProgramAccounts(_ context.Context, programID string, _ []solana.AccountFilter) ([]solana.ProgramAccount, error) {
	if err := c.Errs["getProgramAccounts"]; err != nil {
		return nil, err
	}
	return c.Programs[programID], nil
}

// AddSignatures adds signatures for an address.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.Signatures[address] = append(c.Signatures[address], sigs...)
}

// AddTransaction adds a transaction keyed by its signature.
func (c *RPCClient) AddTransaction(tx *solana.ParsedTransaction) {
	c.Transactions[tx.Signature] = tx
}
