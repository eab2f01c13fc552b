package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadig/internal/models"
	"kadig/internal/service"
)

type fakeRefresher struct {
	req     service.Request
	summary *service.Summary
	err     error
}

func (f *fakeRefresher) Run(_ context.Context, req service.Request) (*service.Summary, error) {
	f.req = req
	return f.summary, f.err
}

type fakeRepo struct {
	portfolios []models.Portfolio
	holdings   []models.Holding
	err        error
}

func (f *fakeRepo) ListPortfolios(context.Context, string) ([]models.Portfolio, error) {
	return f.portfolios, f.err
}

func (f *fakeRepo) ListHoldings(context.Context, string) ([]models.Holding, error) {
	return f.holdings, f.err
}

func newRouter(repo PortfolioReader, rf Refresher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	r := gin.New()
	NewHandler(repo, rf, log).Register(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdatePrices_Success(t *testing.T) {
	ts := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	rf := &fakeRefresher{summary: &service.Summary{
		Success: true, Updated: 2, Total: 3, Errors: []string{"crypto: timeout"}, Timestamp: ts, RunID: "r1",
	}}
	r := newRouter(&fakeRepo{}, rf)

	w := do(r, http.MethodPost, "/update-prices", `{"userId":"u1","forceUpdate":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.Request{UserID: "u1", ForceUpdate: true}, rf.req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["updated"])
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, []interface{}{"crypto: timeout"}, body["errors"])
	assert.Equal(t, "2026-10-17T12:00:00Z", body["timestamp"])
	_, hasUnmatched := body["unmatched"]
	assert.False(t, hasUnmatched)
}

func TestUpdatePrices_EmptyBodySweepsAll(t *testing.T) {
	rf := &fakeRefresher{summary: &service.Summary{Success: true}}
	r := newRouter(&fakeRepo{}, rf)

	w := do(r, http.MethodPost, "/update-prices", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.Request{}, rf.req)
	assert.NotContains(t, w.Body.String(), `"errors"`)
}

func TestUpdatePrices_BadBody(t *testing.T) {
	r := newRouter(&fakeRepo{}, &fakeRefresher{})
	w := do(r, http.MethodPost, "/update-prices", `{"userId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePrices_CatastrophicFailure(t *testing.T) {
	rf := &fakeRefresher{err: errors.New("load holdings: connection refused")}
	r := newRouter(&fakeRepo{}, rf)

	w := do(r, http.MethodPost, "/update-prices", `{}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "load holdings: connection refused", body["error"])
}

func TestGetPortfolio(t *testing.T) {
	repo := &fakeRepo{
		portfolios: []models.Portfolio{
			{ID: "p1", UserID: "u1", Name: "X", TotalValue: decimal.NewFromInt(9100)},
			{ID: "p2", UserID: "u1", Name: "Y", TotalValue: decimal.RequireFromString("0.5")},
		},
		holdings: []models.Holding{
			{ID: "h1", PortfolioID: "p1", UserID: "u1", Name: "PETR4"},
			{ID: "h2", PortfolioID: "p1", UserID: "u1", Name: "BITCOIN"},
		},
	}
	r := newRouter(repo, &fakeRefresher{})

	w := do(r, http.MethodGet, "/portfolio/u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Portfolios []struct {
			ID       string `json:"id"`
			Holdings []struct {
				ID string `json:"id"`
			} `json:"holdings"`
		} `json:"portfolios"`
		TotalValue string `json:"total_value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Portfolios, 2)
	assert.Equal(t, "p1", body.Portfolios[0].ID)
	assert.Len(t, body.Portfolios[0].Holdings, 2)
	assert.NotNil(t, body.Portfolios[1].Holdings)
	assert.Empty(t, body.Portfolios[1].Holdings)
	assert.Equal(t, "9100.50", body.TotalValue)
}

func TestGetPortfolio_QueryFailure(t *testing.T) {
	r := newRouter(&fakeRepo{err: errors.New("boom")}, &fakeRefresher{})
	w := do(r, http.MethodGet, "/portfolio/u1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	r := newRouter(&fakeRepo{}, &fakeRefresher{})
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
