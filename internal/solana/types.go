package solana

// Well-known program IDs.
const (
	TokenProgram         = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	SystemProgram        = "11111111111111111111111111111111"
	TokenMetadataProgram = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
)

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64 // seconds since epoch, may be absent
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for
// getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // start searching backwards from this signature
	Until  string // search until this signature
	Limit  int    // maximum number of signatures to return
}

// UITokenAmount is a token amount as reported by the RPC, with both raw
// and decimal-adjusted representations.
type UITokenAmount struct {
	Amount   string   `json:"amount"`
	Decimals int      `json:"decimals"`
	UIAmount *float64 `json:"uiAmount"`
}

// Value returns the decimal-adjusted amount, zero when absent.
func (a UITokenAmount) Value() float64 {
	if a.UIAmount == nil {
		return 0
	}
	return *a.UIAmount
}

// TokenBalance is one entry of preTokenBalances/postTokenBalances.
type TokenBalance struct {
	AccountIndex  int           `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner"`
	UITokenAmount UITokenAmount `json:"uiTokenAmount"`
}

// TransactionMeta contains the transaction metadata relevant to ledger
// reconciliation.
type TransactionMeta struct {
	Err               interface{}    `json:"err"`
	Fee               uint64         `json:"fee"`
	PreTokenBalances  []TokenBalance `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance `json:"postTokenBalances"`
	LogMessages       []string       `json:"logMessages"`
}

// ParsedTransaction is a transaction with its token balance snapshots.
type ParsedTransaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // seconds since epoch, zero when absent
	Meta      *TransactionMeta
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte // decoded from base64
	Executable bool
	RentEpoch  uint64
}

// MintInfo is the parsed SPL mint account.
type MintInfo struct {
	Supply          float64 // decimal-adjusted
	Decimals        int
	MintAuthority   bool // authority option still set
	FreezeAuthority bool
}

// AccountFilter is a getProgramAccounts server-side filter. Exactly one of
// DataSize or Memcmp is set.
type AccountFilter struct {
	DataSize int
	Memcmp   *MemcmpFilter
}

// MemcmpFilter matches account data bytes at an offset against a base58
// encoded value.
type MemcmpFilter struct {
	Offset int
	Bytes  string
}

// ProgramAccount is one result of getProgramAccounts.
type ProgramAccount struct {
	Pubkey  string
	Account AccountInfo
}
