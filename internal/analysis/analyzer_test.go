package analysis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/McomEngine/solinsidefinder/internal/cache"
	"github.com/McomEngine/solinsidefinder/internal/pricefeed"
	"github.com/McomEngine/solinsidefinder/internal/solana"
	"github.com/McomEngine/solinsidefinder/internal/solana/stub"
)

const testMint = "So11111111111111111111111111111111111111112"

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// testFeed serves a fixed Dexscreener payload: $2.50, $500k liquidity,
// -3.25% over 24h, lock until 2026-01-01.
func testFeed(t *testing.T, store cache.Cache) *pricefeed.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[{"priceUsd":"2.5","liquidity":{"usd":500000},"priceChange":{"h24":-3.25},"locks":{"lockedUntil":1767225600000}}]}`)
	}))
	t.Cleanup(srv.Close)
	return pricefeed.New(pricefeed.Options{BaseURL: srv.URL + "/", Cache: store})
}

func brokenFeed(t *testing.T) *pricefeed.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return pricefeed.New(pricefeed.Options{BaseURL: srv.URL + "/"})
}

func newTestAnalyzer(t *testing.T, rpc solana.RPCClient) (*Analyzer, *cache.Memory) {
	t.Helper()
	store := cache.NewMemory()
	a := New(Options{
		RPC:   rpc,
		Cache: store,
		Feed:  testFeed(t, store),
		Now:   func() time.Time { return testNow },
	})
	return a, store
}

func amount(v float64) solana.UITokenAmount {
	return solana.UITokenAmount{UIAmount: &v}
}

func addTransfer(rpc *stub.RPCClient, sig string, at time.Time, owner string, pre, post float64) {
	ts := at.Unix()
	rpc.AddSignatures(testMint, []solana.SignatureInfo{{Signature: sig, BlockTime: &ts}})
	rpc.AddTransaction(&solana.ParsedTransaction{
		Signature: sig,
		BlockTime: ts,
		Meta: &solana.TransactionMeta{
			PreTokenBalances:  []solana.TokenBalance{{Mint: testMint, Owner: owner, UITokenAmount: amount(pre)}},
			PostTokenBalances: []solana.TokenBalance{{Mint: testMint, Owner: owner, UITokenAmount: amount(post)}},
		},
	})
}

func TestSearch_PipelineEndToEnd(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Mints[testMint] = &solana.MintInfo{Supply: 1_000_000, Decimals: 9}
	// Newest first, as the chain returns them.
	addTransfer(rpc, "tx2", testNow.Add(-1*time.Hour), "buyer", 100, 60)
	addTransfer(rpc, "tx1", testNow.Add(-2*time.Hour), "buyer", 0, 100)

	a, _ := newTestAnalyzer(t, rpc)
	results, err := a.Search(context.Background(), testMint)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results.Holders) != 1 {
		t.Fatalf("holders = %d, want 1", len(results.Holders))
	}
	buyer := results.Holders[0]
	if buyer.Address != "buyer" || buyer.TotalAmount != 60 {
		t.Errorf("holder = %s with %v, want buyer holding 60", buyer.Address, buyer.TotalAmount)
	}
	if buyer.BuyCount != 1 || buyer.SellCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", buyer.BuyCount, buyer.SellCount)
	}
	if len(results.ActiveTraders) != 1 || len(results.LargeSellers) != 1 {
		t.Errorf("activeTraders/largeSellers = %d/%d, want 1/1",
			len(results.ActiveTraders), len(results.LargeSellers))
	}
	if buyer.Score <= 0 {
		t.Errorf("score = %v, want positive", buyer.Score)
	}
}

func TestSearch_QuietToken(t *testing.T) {
	a, _ := newTestAnalyzer(t, stub.NewRPCClient())
	results, err := a.Search(context.Background(), testMint)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results.Holders == nil || len(results.Holders) != 0 {
		t.Errorf("holders = %v, want empty non-nil list", results.Holders)
	}
	if results.EarlyBuyers == nil || results.ActiveTraders == nil || results.LargeSellers == nil {
		t.Error("cohort lists must be empty slices, not nil")
	}
}

func TestSearch_SignatureFetchErrorPropagates(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Errs["getSignaturesForAddress"] = solana.ErrRateLimited

	a, _ := newTestAnalyzer(t, rpc)
	_, err := a.Search(context.Background(), testMint)
	if !errors.Is(err, solana.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestSearch_ServedFromCache(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Mints[testMint] = &solana.MintInfo{Supply: 1_000_000, Decimals: 9}
	addTransfer(rpc, "tx1", testNow.Add(-1*time.Hour), "buyer", 0, 100)

	a, _ := newTestAnalyzer(t, rpc)
	first, err := a.Search(context.Background(), testMint)
	if err != nil {
		t.Fatalf("first Search: %v", err)
	}

	// A cached result must short-circuit before touching the RPC.
	rpc.Errs["getSignaturesForAddress"] = errors.New("upstream down")
	second, err := a.Search(context.Background(), testMint)
	if err != nil {
		t.Fatalf("cached Search: %v", err)
	}
	if len(second.Holders) != len(first.Holders) {
		t.Errorf("cached holders = %d, want %d", len(second.Holders), len(first.Holders))
	}
}

func TestHealthScore_NoActivity(t *testing.T) {
	a, _ := newTestAnalyzer(t, stub.NewRPCClient())
	report, err := a.HealthScore(context.Background(), testMint)
	if err != nil {
		t.Fatalf("HealthScore: %v", err)
	}
	if report.HealthScore != 0 || report.InsiderIntensity != 0 {
		t.Errorf("scores = %d/%d, want zeros for quiet token", report.HealthScore, report.InsiderIntensity)
	}
	if len(report.Reasons) != 1 || report.Reasons[0] != "No transactions found for this address" {
		t.Errorf("reasons = %v, want the no-activity reason", report.Reasons)
	}
}

func TestHealthScore_WithActivity(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Mints[testMint] = &solana.MintInfo{Supply: 1_000_000, Decimals: 9}
	addTransfer(rpc, "tx1", testNow.Add(-1*time.Hour), "buyer", 0, 100)

	a, _ := newTestAnalyzer(t, rpc)
	report, err := a.HealthScore(context.Background(), testMint)
	if err != nil {
		t.Fatalf("HealthScore: %v", err)
	}
	if report.HealthScore <= 0 {
		t.Errorf("healthScore = %d, want positive", report.HealthScore)
	}
	// $500k against the $1M cap.
	if report.Metrics.LiquidityScore != 50 {
		t.Errorf("liquidityScore = %v, want 50", report.Metrics.LiquidityScore)
	}
	// One signature in the trailing day.
	if report.Metrics.ActivityScore != 2 {
		t.Errorf("activityScore = %v, want 2", report.Metrics.ActivityScore)
	}
}

func TestTimeline_PricedAndSortedAscending(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Mints[testMint] = &solana.MintInfo{Supply: 1_000_000, Decimals: 9}
	addTransfer(rpc, "tx2", testNow.Add(-1*time.Hour), "buyer", 100, 60)
	addTransfer(rpc, "tx1", testNow.Add(-2*time.Hour), "buyer", 0, 100)

	a, _ := newTestAnalyzer(t, rpc)
	events, err := a.Timeline(context.Background(), testMint)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[0].Timestamp.Before(events[1].Timestamp) {
		t.Error("events not sorted ascending by timestamp")
	}
	if events[0].Buy == nil || events[0].Buy.Amount != 100 {
		t.Errorf("events[0] = %+v, want the buy leg first", events[0])
	}
	if events[1].Sell == nil || events[1].Sell.Amount != 40 {
		t.Errorf("events[1] = %+v, want the sell leg second", events[1])
	}
	for _, ev := range events {
		if ev.Price != 2.5 || ev.PriceSource != "dexscreener" {
			t.Errorf("event priced %v from %q, want 2.5 from dexscreener", ev.Price, ev.PriceSource)
		}
	}
}

func TestTimeline_DegradedPriceFeed(t *testing.T) {
	rpc := stub.NewRPCClient()
	addTransfer(rpc, "tx1", testNow.Add(-1*time.Hour), "buyer", 0, 100)

	a := New(Options{
		RPC:  rpc,
		Feed: brokenFeed(t),
		Now:  func() time.Time { return testNow },
	})
	events, err := a.Timeline(context.Background(), testMint)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Price != pricefeed.FallbackPrice || events[0].PriceSource != "default" {
		t.Errorf("degraded event = %v from %q, want fallback price from default", events[0].Price, events[0].PriceSource)
	}
}

func TestTransfers_QuietToken(t *testing.T) {
	a, _ := newTestAnalyzer(t, stub.NewRPCClient())
	graph, err := a.Transfers(context.Background(), testMint, 50)
	if err != nil {
		t.Fatalf("Transfers: %v", err)
	}
	if len(graph.Nodes) != 0 || len(graph.Edges) != 0 {
		t.Errorf("graph = %d nodes %d edges, want empty", len(graph.Nodes), len(graph.Edges))
	}
	if graph.Message != "No transactions found for this token" {
		t.Errorf("message = %q, want the no-transactions message", graph.Message)
	}
}

func TestTransfers_BuildsDirectedGraph(t *testing.T) {
	rpc := stub.NewRPCClient()
	ts := testNow.Add(-1 * time.Hour).Unix()
	rpc.AddSignatures(testMint, []solana.SignatureInfo{{Signature: "tx1", BlockTime: &ts}})
	rpc.AddTransaction(&solana.ParsedTransaction{
		Signature: "tx1",
		BlockTime: ts,
		Meta: &solana.TransactionMeta{
			PreTokenBalances:  []solana.TokenBalance{{Mint: testMint, Owner: "pool", UITokenAmount: amount(50)}},
			PostTokenBalances: []solana.TokenBalance{{Mint: testMint, Owner: "buyer", UITokenAmount: amount(150)}},
		},
	})

	a, _ := newTestAnalyzer(t, rpc)
	graph, err := a.Transfers(context.Background(), testMint, 50)
	if err != nil {
		t.Fatalf("Transfers: %v", err)
	}

	if len(graph.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(graph.Nodes))
	}
	if graph.Nodes[0].ID != "buyer" || graph.Nodes[0].Balance != 150 {
		t.Errorf("top node = %+v, want buyer with 150", graph.Nodes[0])
	}
	if len(graph.Edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(graph.Edges))
	}
	edge := graph.Edges[0]
	if edge.Source != "pool" || edge.Target != "buyer" || edge.Amount != 100 {
		t.Errorf("edge = %+v, want pool->buyer of 100", edge)
	}
}

func TestCompare_AssemblesReport(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Mints[testMint] = &solana.MintInfo{Supply: 1_000_000, Decimals: 9}
	addTransfer(rpc, "tx1", testNow.Add(-1*time.Hour), "buyer", 0, 100)

	a, _ := newTestAnalyzer(t, rpc)
	report, err := a.Compare(context.Background(), testMint)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if report.Address != testMint {
		t.Errorf("address = %q, want the mint", report.Address)
	}
	if report.PriceChange24h != "-3.25" {
		t.Errorf("priceChange24h = %q, want -3.25", report.PriceChange24h)
	}
	// One timeline event in the trailing day rounds up to one point.
	if report.HypeScore != 1 {
		t.Errorf("hypeScore = %d, want 1", report.HypeScore)
	}
	// No metadata account in the stub.
	if report.TokenName != "Unknown" || report.TokenSymbol != "UNK" {
		t.Errorf("metadata = %q/%q, want fallbacks", report.TokenName, report.TokenSymbol)
	}
	if report.HealthScore <= 0 {
		t.Errorf("healthScore = %d, want positive", report.HealthScore)
	}
}

func TestCopyTrade(t *testing.T) {
	rpc := stub.NewRPCClient()
	ts := testNow.Add(-1 * time.Hour).Unix()
	rpc.AddTransaction(&solana.ParsedTransaction{
		Signature: "sellTx",
		BlockTime: ts,
		Meta: &solana.TransactionMeta{
			PreTokenBalances:  []solana.TokenBalance{{Mint: testMint, Owner: "trader", UITokenAmount: amount(100)}},
			PostTokenBalances: []solana.TokenBalance{{Mint: testMint, Owner: "trader", UITokenAmount: amount(30)}},
		},
	})
	rpc.AddTransaction(&solana.ParsedTransaction{
		Signature: "unrelatedTx",
		BlockTime: ts,
		Meta: &solana.TransactionMeta{
			PreTokenBalances:  []solana.TokenBalance{{Mint: testMint, Owner: "someoneElse", UITokenAmount: amount(10)}},
			PostTokenBalances: []solana.TokenBalance{{Mint: testMint, Owner: "someoneElse", UITokenAmount: amount(20)}},
		},
	})

	a, _ := newTestAnalyzer(t, rpc)
	ctx := context.Background()

	trade, err := a.CopyTrade(ctx, "trader", "sellTx")
	if err != nil {
		t.Fatalf("CopyTrade: %v", err)
	}
	if trade.Type != "sell" || trade.Amount != 70 || trade.TokenMint != testMint {
		t.Errorf("trade = %+v, want sell of 70", trade)
	}
	if trade.Timestamp.Unix() != ts {
		t.Errorf("timestamp = %v, want block time", trade.Timestamp)
	}

	if _, err := a.CopyTrade(ctx, "trader", "missingTx"); !errors.Is(err, ErrTxNotFound) {
		t.Errorf("missing tx err = %v, want ErrTxNotFound", err)
	}
	if _, err := a.CopyTrade(ctx, "trader", "unrelatedTx"); !errors.Is(err, ErrTransferNotFound) {
		t.Errorf("unrelated tx err = %v, want ErrTransferNotFound", err)
	}
}

func TestRugCheck_MintNotFound(t *testing.T) {
	a, _ := newTestAnalyzer(t, stub.NewRPCClient())
	_, err := a.RugCheck(context.Background(), testMint)
	if !errors.Is(err, ErrMintNotFound) {
		t.Errorf("err = %v, want ErrMintNotFound", err)
	}
}

func burnAccount(raw uint64) solana.ProgramAccount {
	data := make([]byte, solana.TokenAccountSize)
	binary.LittleEndian.PutUint64(data[64:], raw)
	return solana.ProgramAccount{Pubkey: "burn", Account: solana.AccountInfo{Data: data}}
}

func TestRugCheck_CleanToken(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Accounts[testMint] = &solana.AccountInfo{Owner: solana.TokenProgram}
	rpc.Mints[testMint] = &solana.MintInfo{Supply: 1000, Decimals: 6}
	// 200 of 1000 tokens sit in the burn account.
	rpc.Programs[solana.TokenProgram] = []solana.ProgramAccount{burnAccount(200_000_000)}

	a, _ := newTestAnalyzer(t, rpc)
	report, err := a.RugCheck(context.Background(), testMint)
	if err != nil {
		t.Fatalf("RugCheck: %v", err)
	}

	if report.MintAuthority || report.FreezeAuthority {
		t.Error("authorities should be clear when the mint parses clean")
	}
	if !report.ContractRenounced {
		t.Error("contractRenounced should follow cleared authorities")
	}
	if report.BurnedPercentage != 20 {
		t.Errorf("burnedPercentage = %v, want 20", report.BurnedPercentage)
	}
	// $500k liquidity against the $1M cap.
	if report.LiquidityLocked != 50 {
		t.Errorf("liquidityLocked = %v, want 50", report.LiquidityLocked)
	}
	if report.LiquidityLockDuration != "2026-01-01T00:00:00Z" {
		t.Errorf("lockDuration = %q, want the RFC3339 lock time", report.LiquidityLockDuration)
	}
	if report.RiskScore != 0 {
		t.Errorf("riskScore = %d with reasons %v, want 0", report.RiskScore, report.Reasons)
	}
}

func TestRugCheck_WorstCaseDefaultsAndClamp(t *testing.T) {
	rpc := stub.NewRPCClient()
	// Mint account exists but its layout cannot be parsed into mint info.
	rpc.Accounts[testMint] = &solana.AccountInfo{Owner: solana.TokenProgram}
	addTransfer(rpc, "tx1", testNow.Add(-1*time.Hour), "buyer", 0, 100)

	a, _ := newTestAnalyzer(t, rpc)
	report, err := a.RugCheck(context.Background(), testMint)
	if err != nil {
		t.Fatalf("RugCheck: %v", err)
	}

	if !report.MintAuthority || !report.FreezeAuthority {
		t.Error("unparseable mint must default to active authorities")
	}
	if report.TotalSupply != 1 {
		t.Errorf("totalSupply = %v, want default 1", report.TotalSupply)
	}
	// 100 observed insider tokens against a supply of 1.
	if report.InsiderHoldings != 1 {
		t.Errorf("insiderHoldings = %v, want clamp to supply", report.InsiderHoldings)
	}
	last := report.Reasons[len(report.Reasons)-1]
	if last != "Insider holdings estimate exceeded supply and was clamped" {
		t.Errorf("last reason = %q, want the clamp note", last)
	}
}

func TestTokenPrice(t *testing.T) {
	a, _ := newTestAnalyzer(t, stub.NewRPCClient())
	if got := a.TokenPrice(context.Background(), testMint); got != 2.5 {
		t.Errorf("price = %v, want 2.5", got)
	}
}
