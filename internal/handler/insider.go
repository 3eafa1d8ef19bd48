package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"insiderwatch/internal/political"
	"insiderwatch/internal/service"
	"insiderwatch/internal/store"
)

type InsiderHandler struct {
	Analyzer   *service.Analyzer
	Scanner    *service.Scanner
	Candidates *store.CandidateStore
	Logger     *zap.Logger
}

func (h *InsiderHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/insider")
	group.POST("/analyze", h.analyzeWallet)
	group.POST("/scan", h.scanMarket)
	group.GET("/candidates", h.listCandidates)

	markets := r.Group("/api/v1/markets")
	markets.GET("/political", h.politicalMarkets)
}

type analyzeWalletRequest struct {
	Address        string `json:"address"`
	TargetMarket   string `json:"targetMarket"`
	EventTimestamp *int64 `json:"eventTimestamp"` // epoch ms
	SaveCandidate  *bool  `json:"saveCandidate"`
}

// @Summary Analyze a wallet for insider characteristics
// @Tags insider
// @Accept json
// @Param request body analyzeWalletRequest true "analysis arguments"
// @Success 200 {object} apiResponse
// @Router /api/v1/insider/analyze [post]
func (h *InsiderHandler) analyzeWallet(c *gin.Context) {
	if h.Analyzer == nil {
		Fail(c, errServiceMissing)
		return
	}
	var req analyzeWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid body")
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		BadRequest(c, "address required")
		return
	}
	result, err := h.Analyzer.AnalyzeWallet(c.Request.Context(), service.AnalyzeParams{
		Address:        req.Address,
		TargetMarket:   strings.TrimSpace(req.TargetMarket),
		EventTimestamp: req.EventTimestamp,
		SaveCandidate:  req.SaveCandidate,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result, nil)
}

type scanMarketRequest struct {
	ConditionID string `json:"conditionId"`
	MinScore    *int   `json:"minScore"`
	Limit       int    `json:"limit"`
}

// @Summary Scan a market's recent traders for insider candidates
// @Tags insider
// @Accept json
// @Param request body scanMarketRequest true "scan arguments"
// @Success 200 {object} apiResponse
// @Router /api/v1/insider/scan [post]
func (h *InsiderHandler) scanMarket(c *gin.Context) {
	if h.Scanner == nil {
		Fail(c, errServiceMissing)
		return
	}
	var req scanMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid body")
		return
	}
	req.ConditionID = strings.TrimSpace(req.ConditionID)
	if req.ConditionID == "" {
		BadRequest(c, "conditionId required")
		return
	}
	result, err := h.Scanner.ScanMarket(c.Request.Context(), service.ScanParams{
		ConditionID: req.ConditionID,
		MinScore:    req.MinScore,
		Limit:       req.Limit,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result, nil)
}

// @Summary List persisted insider candidates
// @Tags insider
// @Param min_score query int false "minimum score (default 0)"
// @Param max_score query int false "maximum score (default 100)"
// @Param sort_by query string false "score | analyzedAt | totalVolume"
// @Param sort_order query string false "asc | desc"
// @Param limit query int false "page size (default 50)"
// @Success 200 {object} apiResponse
// @Router /api/v1/insider/candidates [get]
func (h *InsiderHandler) listCandidates(c *gin.Context) {
	if h.Candidates == nil {
		Fail(c, errServiceMissing)
		return
	}
	minScore, err := intQueryPtr(c, "min_score")
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	maxScore, err := intQueryPtr(c, "max_score")
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	limit, err := intQuery(c, "limit", 50)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	params := store.CandidateListParams{
		MinScore:  minScore,
		MaxScore:  maxScore,
		SortBy:    strQuery(c, "sort_by"),
		SortOrder: strQuery(c, "sort_order"),
		Limit:     limit,
	}
	candidates, metadata, err := h.Candidates.List(params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, candidates, map[string]any{
		"total":          metadata.TotalCandidates,
		"returned":       len(candidates),
		"highScoreCount": metadata.HighScoreCount,
		"lastScanAt":     metadata.LastScanAt,
	})
}

// @Summary List political markets with insider context
// @Tags insider
// @Param category query string false "election | geopolitics | policy | leadership | international"
// @Param active query bool false "only active markets (default true)"
// @Param limit query int false "page size (default 20)"
// @Param sort_by query string false "volume | insiderActivity | newest"
// @Success 200 {object} apiResponse
// @Router /api/v1/markets/political [get]
func (h *InsiderHandler) politicalMarkets(c *gin.Context) {
	if h.Scanner == nil {
		Fail(c, errServiceMissing)
		return
	}
	category := political.Category(strQuery(c, "category"))
	if category != "" && category != "all" && !validCategory(category) {
		BadRequest(c, "unknown category")
		return
	}
	if category == "all" {
		category = ""
	}
	active, err := boolQueryPtr(c, "active")
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.Scanner.PoliticalMarkets(c.Request.Context(), service.PoliticalMarketsParams{
		Category: category,
		Active:   active,
		Limit:    limit,
		SortBy:   strQuery(c, "sort_by"),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result, nil)
}

func validCategory(category political.Category) bool {
	for _, known := range political.Categories() {
		if category == known {
			return true
		}
	}
	return false
}
