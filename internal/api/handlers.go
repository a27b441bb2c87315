package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/McomEngine/solinsidefinder/internal/monitor"
	"github.com/McomEngine/solinsidefinder/internal/solana"
)

// addressRequest is the shared request body for the analysis endpoints.
type addressRequest struct {
	Address string `json:"address"`
}

// transfersRequest adds the optional signature window size.
type transfersRequest struct {
	Address string `json:"address"`
	Limit   int    `json:"limit"`
}

// copyTradeRequest identifies one transaction of one wallet.
type copyTradeRequest struct {
	WalletAddress string `json:"walletAddress"`
	TransactionID string `json:"transactionId"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Server is running"})
}

// bindAddress parses and validates the mint address from the request
// body, writing the 400 response itself on failure.
func (s *Server) bindAddress(c *gin.Context) (string, bool) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contract address is required"})
		return "", false
	}
	if err := solana.ValidateAddress(req.Address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract address"})
		return "", false
	}
	return req.Address, true
}

func (s *Server) handleSearch(c *gin.Context) {
	address, ok := s.bindAddress(c)
	if !ok {
		return
	}

	results, err := s.analyzer.Search(c.Request.Context(), address)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleHealthScore(c *gin.Context) {
	address, ok := s.bindAddress(c)
	if !ok {
		return
	}

	report, err := s.analyzer.HealthScore(c.Request.Context(), address)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleTimeline(c *gin.Context) {
	address, ok := s.bindAddress(c)
	if !ok {
		return
	}

	events, err := s.analyzer.Timeline(c.Request.Context(), address)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleTransfers(c *gin.Context) {
	var req transfersRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contract address is required"})
		return
	}
	if err := solana.ValidateAddress(req.Address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract address"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}

	graph, err := s.analyzer.Transfers(c.Request.Context(), req.Address, req.Limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (s *Server) handleRugCheck(c *gin.Context) {
	address, ok := s.bindAddress(c)
	if !ok {
		return
	}

	report, err := s.analyzer.RugCheck(c.Request.Context(), address)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleCompare(c *gin.Context) {
	address, ok := s.bindAddress(c)
	if !ok {
		return
	}

	report, err := s.analyzer.Compare(c.Request.Context(), address)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleTokenPrice(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contract address is required"})
		return
	}
	if err := solana.ValidateAddress(address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract address"})
		return
	}

	price := s.analyzer.TokenPrice(c.Request.Context(), address)
	c.JSON(http.StatusOK, gin.H{"price": price})
}

func (s *Server) handleCopyTrade(c *gin.Context) {
	var req copyTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WalletAddress == "" || req.TransactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address and transaction ID are required"})
		return
	}
	if err := solana.ValidateAddress(req.WalletAddress); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		return
	}

	trade, err := s.analyzer.CopyTrade(c.Request.Context(), req.WalletAddress, req.TransactionID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

// handleMonitor streams matched transfer batches for the watched wallets
// as server-sent events until the client disconnects.
func (s *Server) handleMonitor(c *gin.Context) {
	address := c.Query("address")
	walletsParam := c.Query("wallets")
	if address == "" || walletsParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Address and wallets are required"})
		return
	}
	if err := solana.ValidateAddress(address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract address"})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var wake <-chan solana.LogNotification
	if s.wsEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, s.wsEndpoint, address, nil)
		if err != nil {
			s.logger.WithError(err).Warn("monitor websocket unavailable, polling only")
		} else {
			defer ws.Close()
			wake = ws.Notifications()
		}
	}

	session, err := monitor.NewSession(monitor.Options{
		RPC:      s.rpc,
		Mint:     address,
		Wallets:  strings.Split(walletsParam, ","),
		Interval: s.monitorInterval,
		Logger:   s.logger,
		Wake:     wake,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid wallets provided to monitor"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	go session.Run(ctx)

	c.Stream(func(w io.Writer) bool {
		batch, ok := <-session.Events()
		if !ok {
			return false
		}
		data, err := json.Marshal(batch)
		if err != nil {
			return true
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		return true
	})
}
