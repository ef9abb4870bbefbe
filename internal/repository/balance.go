package repository

import (
	"context"

	domrepo "GoldGate/internal/domain/repository"
)

// StaticBalanceProvider serves the configured account balance. It stands in
// for a broker equity feed; risk sizing falls back to it when no live
// provider is wired.
type StaticBalanceProvider struct {
	amount float64
}

func NewStaticBalanceProvider(amount float64) *StaticBalanceProvider {
	return &StaticBalanceProvider{amount: amount}
}

func (p *StaticBalanceProvider) Balance(context.Context) (float64, error) {
	return p.amount, nil
}

var _ domrepo.BalanceProvider = (*StaticBalanceProvider)(nil)
