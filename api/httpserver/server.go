// Package httpserver is the read-only HTTP surface: health, metrics,
// swap and balance queries, account history and a websocket stream of
// committed events. Mutations go through gRPC.
package httpserver

import (
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"junction/api/swapapi"
	"junction/domain/swap"
	"junction/infra/history"
	"junction/infra/metrics"
	"junction/service"
)

type Server struct {
	svc     *service.SwapService
	history *history.Archive
	metrics *metrics.Metrics
	log     *logrus.Entry
}

// New builds the HTTP API. archive may be nil when history is disabled.
func New(svc *service.SwapService, archive *history.Archive, m *metrics.Metrics, log *logrus.Entry) *Server {
	return &Server{svc: svc, history: archive, metrics: m, log: log}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")

	swaps := api.Group("/swaps")
	swaps.GET("", s.handleSwapsList)
	swaps.GET("/:id", s.handleSwapGet)
	swaps.GET("/:id/history", s.handleSwapHistory)

	balances := api.Group("/balances/:owner")
	balances.GET("", s.handleBalances)
	balances.GET("/:symbol", s.handleBalance)

	api.GET("/history/:owner", s.handleHistory)
	api.GET("/audit", s.handleAudit)
	api.GET("/assets", s.handleAssets)

	r.GET("/ws/events", s.handleEvents)

	return r
}

type apiError struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch swap.KindOf(err) {
	case swap.ErrNotFound:
		code = http.StatusNotFound
	case swap.ErrInvalidInput:
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.FullPath()).Warn("request failed")
	}
	c.JSON(code, apiError{Error: err.Error(), Reason: swap.KindName(err)})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"applied_seq":   s.svc.AppliedSeq(),
		"pending_swaps": len(s.svc.ListPendingSwaps()),
	})
}

// -------------------- Swaps --------------------

func (s *Server) handleSwapsList(c *gin.Context) {
	reqs := s.svc.ListPendingSwaps()
	out := make([]swapapi.Swap, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, swapapi.FromSwap(r))
	}
	c.JSON(http.StatusOK, swapapi.SwapList{Swaps: out})
}

func (s *Server) handleSwapGet(c *gin.Context) {
	id, err := swapID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	r, err := s.svc.GetSwap(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, swapapi.FromSwap(r))
}

func (s *Server) handleSwapHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, apiError{Error: "history is disabled"})
		return
	}
	id, err := swapID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	events, err := s.history.BySwap(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"swap_id": id, "events": events})
}

func swapID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(swap.ErrInvalidInput, "swap id %q", c.Param("id"))
	}
	return id, nil
}

// -------------------- Balances --------------------

type balanceView struct {
	Amount  uint64 `json:"amount"`
	Display string `json:"display"`
}

func (s *Server) handleBalances(c *gin.Context) {
	owner := c.Param("owner")
	catalog := s.svc.Catalog()

	out := make(map[string]balanceView)
	for sym, amt := range s.svc.Balances(swap.Identity(owner)) {
		out[sym] = balanceView{Amount: amt, Display: catalog.Format(sym, amt)}
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner, "balances": out})
}

func (s *Server) handleBalance(c *gin.Context) {
	owner, sym := c.Param("owner"), c.Param("symbol")
	amt := s.svc.BalanceOf(swap.Identity(owner), sym)
	c.JSON(http.StatusOK, gin.H{
		"owner":   owner,
		"symbol":  sym,
		"amount":  amt,
		"display": s.svc.Catalog().Format(sym, amt),
	})
}

// -------------------- History --------------------

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, apiError{Error: "history is disabled"})
		return
	}
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(c, errors.Wrapf(swap.ErrInvalidInput, "limit %q", v))
			return
		}
		limit = n
	}
	events, err := s.history.ByOwner(c.Param("owner"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": c.Param("owner"), "events": events})
}

// -------------------- Ops --------------------

func (s *Server) handleAudit(c *gin.Context) {
	reports := s.svc.Audit()
	out := make([]swapapi.SupplyReport, 0, len(reports))
	balanced := true
	for _, r := range reports {
		out = append(out, swapapi.SupplyReport(r))
		balanced = balanced && r.Balanced
	}
	code := http.StatusOK
	if !balanced {
		code = http.StatusConflict
	}
	c.JSON(code, gin.H{"balanced": balanced, "reports": out})
}

func (s *Server) handleAssets(c *gin.Context) {
	list := s.svc.Assets()
	out := make([]swapapi.Asset, 0, len(list))
	for _, a := range list {
		out = append(out, swapapi.Asset{Symbol: a.Symbol, Chain: swapapi.ChainName(a.Chain), Decimals: a.Decimals, Name: a.Name})
	}
	c.JSON(http.StatusOK, swapapi.AssetList{Assets: out})
}
