package analysis

import (
	"context"
	"time"

	"github.com/McomEngine/solinsidefinder/internal/cache"
	"github.com/McomEngine/solinsidefinder/internal/domain"
)

// TokenPrice returns the current USD price for a mint, cached at the
// price tier. Feed failures fall back to the default price.
func (a *Analyzer) TokenPrice(ctx context.Context, mint string) float64 {
	return a.feed.Quote(ctx, mint).PriceUSD
}

// CopyTrade extracts the token transfer a wallet made in one transaction
// so a client can mirror it. Returns ErrTxNotFound when the transaction
// does not exist and ErrTransferNotFound when it contains no token
// transfer touching the wallet.
func (a *Analyzer) CopyTrade(ctx context.Context, walletAddress, transactionID string) (domain.CopyTrade, error) {
	return cached(ctx, a.cache, cache.CopyTradeKey(walletAddress, transactionID), cache.ResultTTL, func() (domain.CopyTrade, error) {
		tx, err := a.rpc.GetParsedTransaction(ctx, transactionID)
		if err != nil {
			return domain.CopyTrade{}, err
		}
		if tx == nil || tx.Meta == nil {
			return domain.CopyTrade{}, ErrTxNotFound
		}

		ts := a.now().UTC()
		if tx.BlockTime > 0 {
			ts = time.Unix(tx.BlockTime, 0).UTC()
		}

		pre := tx.Meta.PreTokenBalances
		for i, post := range tx.Meta.PostTokenBalances {
			if post.Owner != walletAddress || i >= len(pre) {
				continue
			}
			delta := post.UITokenAmount.Value() - pre[i].UITokenAmount.Value()
			if delta == 0 {
				continue
			}

			trade := domain.CopyTrade{
				WalletAddress: walletAddress,
				TransactionID: transactionID,
				Type:          domain.EventBuy,
				Amount:        delta,
				TokenMint:     post.Mint,
				Timestamp:     ts,
			}
			if delta < 0 {
				trade.Type = domain.EventSell
				trade.Amount = -delta
			}
			return trade, nil
		}

		return domain.CopyTrade{}, ErrTransferNotFound
	})
}
