package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"kadig/internal/models"
)

// ErrNotFound is returned when an update targets a row that no longer exists.
var ErrNotFound = errors.New("not found")

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

const holdingColumns = `id, portfolio_id, user_id, category, name, symbol, quantity, total_invested, current_price, current_value, gain_percent, updated_at`

// ListHoldings returns every holding of userID, or of all users when userID
// is empty.
func (r *Repo) ListHoldings(ctx context.Context, userID string) ([]models.Holding, error) {
	q := `SELECT ` + holdingColumns + ` FROM holdings`
	args := []interface{}{}
	if userID != "" {
		q += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	q += ` ORDER BY portfolio_id, id`

	rows, err := r.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Holding{}
	for rows.Next() {
		var h models.Holding
		if err := rows.StructScan(&h); err != nil {
			r.log.Warnf("scan holding failed: %v", err)
			continue
		}
		h.Category = models.ParseCategory(string(h.Category))
		res = append(res, h)
	}
	return res, rows.Err()
}

// UpdateHoldingValuation writes the derived fields of one holding in a single
// statement so price, value and gain never disagree.
func (r *Repo) UpdateHoldingValuation(ctx context.Context, id string, v models.Valuation) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE holdings SET current_price = $1::numeric, current_value = $2::numeric, gain_percent = $3::numeric, updated_at = $4 WHERE id = $5`,
		v.CurrentPrice.String(), v.CurrentValue.String(), v.GainPercent.String(), v.UpdatedAt, id)
	if err != nil {
		return notFoundOnBadID(err)
	}
	return expectOneRow(res)
}

func (r *Repo) ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error) {
	q := `SELECT id, user_id, name, total_value, total_gain, cdi_percent, updated_at FROM portfolios`
	args := []interface{}{}
	if userID != "" {
		q += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	q += ` ORDER BY name, id`

	rows, err := r.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Portfolio{}
	for rows.Next() {
		var p models.Portfolio
		if err := rows.StructScan(&p); err != nil {
			r.log.Warnf("scan portfolio failed: %v", err)
			continue
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *Repo) UpdatePortfolioTotals(ctx context.Context, id string, t models.PortfolioTotals) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE portfolios SET total_value = $1::numeric, total_gain = $2::numeric, cdi_percent = $3::numeric, updated_at = $4 WHERE id = $5`,
		t.TotalValue.String(), t.TotalGain.String(), t.CDIPercent.String(), t.UpdatedAt, id)
	if err != nil {
		return notFoundOnBadID(err)
	}
	return expectOneRow(res)
}

// CreatePortfolio inserts a portfolio and returns its id.
func (r *Repo) CreatePortfolio(ctx context.Context, userID, name string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO portfolios (id, user_id, name, updated_at) VALUES (gen_random_uuid(), $1, $2, now()) RETURNING id`,
		userID, name).Scan(&id)
	return id, err
}

// CreateHolding inserts a holding with zeroed derived fields and returns its
// id. Price refreshes fill in the rest.
func (r *Repo) CreateHolding(ctx context.Context, h models.Holding) (string, error) {
	var quantity interface{}
	if h.Quantity.Valid {
		quantity = h.Quantity.Decimal.String()
	}
	var id string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO holdings (id, portfolio_id, user_id, category, name, symbol, quantity, total_invested, updated_at)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6::numeric, $7::numeric, now()) RETURNING id`,
		h.PortfolioID, h.UserID, string(h.Category), h.Name, h.Symbol, quantity, h.TotalInvested.String()).Scan(&id)
	return id, err
}

// DeleteUserData removes every portfolio (and, by cascade, holding) of userID.
func (r *Repo) DeleteUserData(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE user_id = $1`, userID)
	return err
}

func expectOneRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// notFoundOnBadID maps a malformed uuid to ErrNotFound: such a row cannot exist.
func notFoundOnBadID(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
		return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Message)
	}
	return err
}

// Ping checks connectivity with a short timeout.
func (r *Repo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}
