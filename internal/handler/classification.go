package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"insiderwatch/internal/models"
	"insiderwatch/internal/store"
)

type ClassificationHandler struct {
	Store  *store.ClassificationStore
	Logger *zap.Logger
}

func (h *ClassificationHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/classification")
	group.GET("/tags", h.listTags)
	group.POST("/tags", h.addTag)
	group.GET("/tags/:id/wallets", h.walletsByTag)
	group.GET("/wallets/:address", h.walletClassification)
	group.POST("/wallets", h.classifyWallet)
	group.DELETE("/wallets/:address/tags/:tag", h.removeWalletTag)
}

// @Summary List tag definitions
// @Tags classification
// @Param category query string false "filter to one tag category"
// @Success 200 {object} apiResponse
// @Router /api/v1/classification/tags [get]
func (h *ClassificationHandler) listTags(c *gin.Context) {
	if h.Store == nil {
		Fail(c, errServiceMissing)
		return
	}
	category := models.TagCategory(strQuery(c, "category"))
	if category != "" && !category.Valid() {
		BadRequest(c, "unknown tag category")
		return
	}
	defs, err := h.Store.TagDefinitions(category)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, defs, map[string]any{"total": len(defs)})
}

type addTagRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Criteria    string `json:"criteria"`
}

// @Summary Add a tag definition to the vocabulary
// @Tags classification
// @Accept json
// @Param request body addTagRequest true "tag definition"
// @Success 200 {object} apiResponse
// @Router /api/v1/classification/tags [post]
func (h *ClassificationHandler) addTag(c *gin.Context) {
	if h.Store == nil {
		Fail(c, errServiceMissing)
		return
	}
	var req addTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid body")
		return
	}
	def, err := h.Store.AddTagDefinition(models.TagDefinition{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    models.TagCategory(strings.TrimSpace(req.Category)),
		Criteria:    strings.TrimSpace(req.Criteria),
	}, timeNow())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, def, nil)
}

// @Summary List wallets carrying a tag
// @Tags classification
// @Param id path string true "tag id"
// @Param sort_by query string false "confidence | analyzedAt"
// @Param sort_order query string false "asc | desc"
// @Success 200 {object} apiResponse
// @Router /api/v1/classification/tags/{id}/wallets [get]
func (h *ClassificationHandler) walletsByTag(c *gin.Context) {
	if h.Store == nil {
		Fail(c, errServiceMissing)
		return
	}
	tagID := strings.TrimSpace(c.Param("id"))
	if tagID == "" {
		BadRequest(c, "tag id required")
		return
	}
	if _, ok, err := h.Store.TagDefinition(tagID); err != nil {
		Fail(c, err)
		return
	} else if !ok {
		NotFound(c, "unknown tag")
		return
	}
	wallets, err := h.Store.WalletsByTag(tagID, strQuery(c, "sort_by"), strQuery(c, "sort_order"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, wallets, map[string]any{"total": len(wallets), "tag": tagID})
}

// @Summary Get one wallet's classification
// @Tags classification
// @Param address path string true "wallet address"
// @Success 200 {object} apiResponse
// @Router /api/v1/classification/wallets/{address} [get]
func (h *ClassificationHandler) walletClassification(c *gin.Context) {
	if h.Store == nil {
		Fail(c, errServiceMissing)
		return
	}
	address := strings.ToLower(strings.TrimSpace(c.Param("address")))
	if address == "" {
		BadRequest(c, "address required")
		return
	}
	classification, ok, err := h.Store.WalletClassification(address)
	if err != nil {
		Fail(c, err)
		return
	}
	if !ok {
		NotFound(c, "wallet not classified")
		return
	}
	Ok(c, classification, nil)
}

type classifyWalletRequest struct {
	Address    string                        `json:"address"`
	Tags       []string                      `json:"tags"`
	Confidence float64                       `json:"confidence"`
	AnalyzedBy string                        `json:"analyzedBy"`
	Metrics    *models.ClassificationMetrics `json:"metrics"`
	Notes      string                        `json:"notes"`
}

// @Summary Classify a wallet with vocabulary tags
// @Tags classification
// @Accept json
// @Param request body classifyWalletRequest true "classification"
// @Success 200 {object} apiResponse
// @Router /api/v1/classification/wallets [post]
func (h *ClassificationHandler) classifyWallet(c *gin.Context) {
	if h.Store == nil {
		Fail(c, errServiceMissing)
		return
	}
	var req classifyWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid body")
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		BadRequest(c, "address required")
		return
	}
	classification, err := h.Store.ClassifyWallet(models.WalletClassification{
		Address:    strings.TrimSpace(req.Address),
		Tags:       req.Tags,
		Confidence: req.Confidence,
		AnalyzedBy: strings.TrimSpace(req.AnalyzedBy),
		Metrics:    req.Metrics,
		Notes:      strings.TrimSpace(req.Notes),
	}, timeNow())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, classification, nil)
}

// @Summary Remove one tag from a wallet
// @Tags classification
// @Param address path string true "wallet address"
// @Param tag path string true "tag id"
// @Success 200 {object} apiResponse
// @Router /api/v1/classification/wallets/{address}/tags/{tag} [delete]
func (h *ClassificationHandler) removeWalletTag(c *gin.Context) {
	if h.Store == nil {
		Fail(c, errServiceMissing)
		return
	}
	address := strings.ToLower(strings.TrimSpace(c.Param("address")))
	tagID := strings.TrimSpace(c.Param("tag"))
	if address == "" || tagID == "" {
		BadRequest(c, "address and tag required")
		return
	}
	remaining, removed, err := h.Store.RemoveWalletTag(address, tagID)
	if err != nil {
		Fail(c, err)
		return
	}
	// Removing an absent tag is a no-op, reported in the payload rather
	// than as an error status.
	Ok(c, map[string]any{
		"success":       removed,
		"address":       address,
		"tag":           tagID,
		"remainingTags": remaining,
	}, nil)
}
