package analysis

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/McomEngine/solinsidefinder/internal/cache"
	"github.com/McomEngine/solinsidefinder/internal/domain"
	"github.com/McomEngine/solinsidefinder/internal/ledger"
	"github.com/McomEngine/solinsidefinder/internal/observability"
	"github.com/McomEngine/solinsidefinder/internal/pricefeed"
)

// TopGraphNodes caps the transfer graph to the largest balances so the
// payload stays renderable.
const TopGraphNodes = 150

const noTransfersMessage = "No transactions found for this token"

// Timeline returns the priced transfer timeline sorted ascending by
// timestamp. An empty cached timeline is treated as stale and recomputed,
// so a token that was quiet at first fetch does not stay empty for the
// whole TTL.
func (a *Analyzer) Timeline(ctx context.Context, mint string) ([]domain.TimelineEvent, error) {
	key := cache.TimelineKey(mint)
	if a.cache != nil {
		if raw, err := a.cache.Get(ctx, key); err == nil {
			var events []domain.TimelineEvent
			if json.Unmarshal(raw, &events) == nil && len(events) > 0 {
				observability.RecordCacheLookup(cacheNamespace(key), true)
				return events, nil
			}
		}
		observability.RecordCacheLookup(cacheNamespace(key), false)
	}

	snap, err := a.analyze(ctx, mint, 1, SignaturePageSize)
	if err != nil {
		return nil, err
	}

	quote := a.feed.Quote(ctx, mint)
	price := quote.PriceUSD
	source := "dexscreener"
	if quote.Degraded || price == pricefeed.FallbackPrice {
		price = pricefeed.FallbackPrice
		source = "default"
	}

	events := make([]domain.TimelineEvent, 0, len(snap.Events))
	for _, ev := range snap.Events {
		te := domain.TimelineEvent{
			Timestamp:   ev.Timestamp,
			Price:       price,
			PriceSource: source,
		}
		leg := &domain.TransferLeg{Wallet: ev.Wallet, Amount: ev.Amount}
		if ev.Type == domain.EventBuy {
			te.Buy = leg
		} else {
			te.Sell = leg
		}
		events = append(events, te)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	if a.cache != nil {
		if raw, err := json.Marshal(events); err == nil {
			a.cache.Set(ctx, key, raw, cache.ResultTTL)
		}
	}
	return events, nil
}

// Transfers builds the token flow graph over the most recent window,
// trimmed to the top nodes by balance.
func (a *Analyzer) Transfers(ctx context.Context, mint string, limit int) (domain.TransferGraph, error) {
	perPage := min(limit, SignaturePageSize)
	if perPage <= 0 {
		perPage = SignaturePageSize
	}

	return cached(ctx, a.cache, cache.TransfersKey(mint, limit), cache.ResultTTL, func() (domain.TransferGraph, error) {
		snap, err := a.analyze(ctx, mint, 1, perPage)
		if err != nil {
			return domain.TransferGraph{}, err
		}
		if len(snap.Signatures) == 0 {
			return domain.TransferGraph{
				Nodes:   []domain.GraphNode{},
				Edges:   []domain.GraphEdge{},
				Message: noTransfersMessage,
			}, nil
		}

		graph := buildGraph(snap.Records, mint)
		if len(graph.Nodes) == 0 && len(graph.Edges) == 0 {
			graph.Message = "No valid token transfers found. Try a different token or increase the limit."
		}
		return graph, nil
	})
}

// buildGraph derives nodes and directed edges from the reconciled
// records. Node balances track the last observed post balance; edge
// direction follows the index-aligned pre owner to post owner.
func buildGraph(records []ledger.Record, mint string) domain.TransferGraph {
	nodes := make(map[string]*domain.GraphNode)
	var edges []domain.GraphEdge

	node := func(id string) *domain.GraphNode {
		n, ok := nodes[id]
		if !ok {
			n = &domain.GraphNode{ID: id}
			nodes[id] = n
		}
		return n
	}

	for _, rec := range records {
		if !rec.Usable() || rec.Sig.BlockTime == nil {
			continue
		}
		ts := time.Unix(*rec.Sig.BlockTime, 0).UTC()

		pre := rec.Tx.Meta.PreTokenBalances
		for i, post := range rec.Tx.Meta.PostTokenBalances {
			if post.Mint != mint || i >= len(pre) || post.Owner == "" {
				continue
			}

			postAmount := post.UITokenAmount.Value()
			amount := postAmount - pre[i].UITokenAmount.Value()

			target := node(post.Owner)
			if postAmount >= 0 {
				target.Balance = postAmount
			}

			source := pre[i].Owner
			if amount > 0 && source != "" && source != post.Owner {
				edges = append(edges, domain.GraphEdge{
					Source:    source,
					Target:    post.Owner,
					Amount:    amount,
					Timestamp: ts,
				})
				src := node(source)
				if src.Balance >= amount {
					src.Balance -= amount
				}
			}
		}
	}

	all := make([]domain.GraphNode, 0, len(nodes))
	for _, n := range nodes {
		all = append(all, *n)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Balance != all[j].Balance {
			return all[i].Balance > all[j].Balance
		}
		return all[i].ID < all[j].ID
	})
	if len(all) > TopGraphNodes {
		all = all[:TopGraphNodes]
	}

	kept := make(map[string]bool, len(all))
	for _, n := range all {
		kept[n.ID] = true
	}
	finalEdges := make([]domain.GraphEdge, 0, len(edges))
	for _, e := range edges {
		if kept[e.Source] && kept[e.Target] {
			finalEdges = append(finalEdges, e)
		}
	}

	return domain.TransferGraph{Nodes: all, Edges: finalEdges}
}
