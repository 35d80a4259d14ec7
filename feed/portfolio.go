package feed

import (
	"context"
	"fmt"
	"time"

	"cryptoalert/api"
)

type PortfolioAPI interface {
	GetPortfolio(ctx context.Context) (*api.Portfolio, error)
	GetTransactions(ctx context.Context) ([]api.Transaction, error)
}

type PortfolioData struct {
	Holdings     []api.Holding
	Transactions []api.Transaction
	LastUpdated  time.Time
}

// LoadPortfolio fetches holdings then transactions. Demo sessions have no
// backend account, so they get empty lists without a request.
func LoadPortfolio(ctx context.Context, src PortfolioAPI, demo bool) (*PortfolioData, error) {
	if demo {
		return &PortfolioData{LastUpdated: time.Now()}, nil
	}

	portfolio, err := src.GetPortfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	transactions, err := src.GetTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return &PortfolioData{
		Holdings:     portfolio.Holdings,
		Transactions: transactions,
		LastUpdated:  time.Now(),
	}, nil
}
