// Package wallet settles the client-side money movement after a booking
// is placed.
package wallet

import (
	"context"
	"fmt"

	"urbane/models"
	"urbane/store"
)

type Debitor struct {
	Store store.Store
}

func NewDebitor(st store.Store) *Debitor {
	return &Debitor{Store: st}
}

// Debit takes the booking's wallet portion off the client's balance,
// never below zero, and consumes the coupon if one was applied. Callers
// treat failures as recoverable; the booking itself is already placed.
func (d *Debitor) Debit(ctx context.Context, b *models.Booking) error {
	if b.WalletMoney <= 0 && b.CouponID == "" {
		return nil
	}

	u, err := d.Store.User(ctx, b.ClientID)
	if err != nil {
		return fmt.Errorf("wallet: client %s: %w", b.ClientID, err)
	}

	balance := u.Payment.Balance - b.WalletMoney
	if balance < 0 {
		balance = 0
	}

	if err := d.Store.UpdateWallet(ctx, b.ClientID, balance, b.CouponID); err != nil {
		return fmt.Errorf("wallet: debit %s: %w", b.ClientID, err)
	}
	return nil
}
