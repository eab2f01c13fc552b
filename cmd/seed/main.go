package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"kadig/internal/app"
	"kadig/internal/config"
	"kadig/internal/database"
	"kadig/internal/models"
)

type seedHolding struct {
	category models.Category
	name     string
	symbol   string
	quantity string
	invested string
}

var demoHoldings = []seedHolding{
	{models.CategoryEquity, "Petrobras PN", "PETR4", "100", "2000"},
	{models.CategoryEquity, "Vale ON", "VALE3", "50", "3100"},
	{models.CategoryCrypto, "BITCOIN", "", "0.01", "3000"},
	{models.CategoryCrypto, "Ethereum", "", "0.5", "6000"},
	{models.CategoryCurrency, "DÓLAR", "", "500", "2400"},
	{models.CategoryCurrency, "Euro", "", "200", "1150"},
	{models.CategoryOther, "Tesouro Selic 2029", "", "", "5000"},
}

func main() {
	userID := flag.String("user", "", "user id to seed (random when empty)")
	reset := flag.Bool("reset", false, "delete the user's existing portfolios first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := app.NewLogger(cfg)

	db, err := app.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	if *userID == "" {
		*userID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := database.New(db, logger)
	if *reset {
		if err := repo.DeleteUserData(ctx, *userID); err != nil {
			logger.Fatalf("reset failed: %v", err)
		}
	}

	portfolioID, err := repo.CreatePortfolio(ctx, *userID, "Carteira Principal")
	if err != nil {
		logger.Fatalf("create portfolio: %v", err)
	}

	for _, sh := range demoHoldings {
		h := models.Holding{
			PortfolioID:   portfolioID,
			UserID:        *userID,
			Category:      sh.category,
			Name:          sh.name,
			TotalInvested: decimal.RequireFromString(sh.invested),
		}
		if sh.symbol != "" {
			sym := sh.symbol
			h.Symbol = &sym
		}
		if sh.quantity != "" {
			h.Quantity = decimal.NewNullDecimal(decimal.RequireFromString(sh.quantity))
		}
		if _, err := repo.CreateHolding(ctx, h); err != nil {
			logger.Warnf("could not insert %s: %v", sh.name, err)
		}
	}

	fmt.Printf("Seeded portfolio %s for user %s with %d holdings\n", portfolioID, *userID, len(demoHoldings))
	fmt.Printf("Now run: go run ./cmd/refresh -user %s\n", *userID)
}
