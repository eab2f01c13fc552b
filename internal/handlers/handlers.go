package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"kadig/internal/models"
	"kadig/internal/service"
)

type PortfolioReader interface {
	ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error)
	ListHoldings(ctx context.Context, userID string) ([]models.Holding, error)
}

type Refresher interface {
	Run(ctx context.Context, req service.Request) (*service.Summary, error)
}

type Handler struct {
	repo      PortfolioReader
	refresher Refresher
	log       *logrus.Logger
}

func NewHandler(r PortfolioReader, rf Refresher, log *logrus.Logger) *Handler {
	return &Handler{repo: r, refresher: rf, log: log}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.POST("/update-prices", h.UpdatePrices)
	r.GET("/portfolio/:userId", h.GetPortfolio)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UpdatePrices runs one refresh. The body is optional; an empty body sweeps
// every user.
func (h *Handler) UpdatePrices(c *gin.Context) {
	var req service.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warnf("invalid update-prices body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.refresher.Run(c.Request.Context(), req)
	if err != nil {
		h.log.Errorf("update prices failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

type portfolioView struct {
	models.Portfolio
	Holdings []models.Holding `json:"holdings"`
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	userID := c.Param("userId")
	ctx := c.Request.Context()

	portfolios, err := h.repo.ListPortfolios(ctx, userID)
	if err != nil {
		h.log.Errorf("list portfolios failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	holdings, err := h.repo.ListHoldings(ctx, userID)
	if err != nil {
		h.log.Errorf("list holdings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	byPortfolio := map[string][]models.Holding{}
	for _, hd := range holdings {
		byPortfolio[hd.PortfolioID] = append(byPortfolio[hd.PortfolioID], hd)
	}

	views := []portfolioView{}
	total := decimal.Zero
	for _, p := range portfolios {
		items := byPortfolio[p.ID]
		if items == nil {
			items = []models.Holding{}
		}
		views = append(views, portfolioView{Portfolio: p, Holdings: items})
		total = total.Add(p.TotalValue)
	}
	c.JSON(http.StatusOK, gin.H{"portfolios": views, "total_value": total.StringFixed(2)})
}
