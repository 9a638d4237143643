package wallet

import (
	"context"
	"testing"

	"urbane/models"
	"urbane/storetest"
)

func TestDebitFloorsAtZero(t *testing.T) {
	mem := storetest.New()
	mem.Users["c1"] = &models.User{ID: "c1", Payment: models.Payment{Balance: 30}}

	b := &models.Booking{ClientID: "c1", WalletMoney: 50}
	if err := NewDebitor(mem).Debit(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	if got := mem.Users["c1"].Payment.Balance; got != 0 {
		t.Fatalf("balance = %v, want 0", got)
	}
}

func TestDebitSubtractsWalletMoney(t *testing.T) {
	mem := storetest.New()
	mem.Users["c1"] = &models.User{ID: "c1", Payment: models.Payment{Balance: 100}}

	b := &models.Booking{ClientID: "c1", WalletMoney: 40}
	if err := NewDebitor(mem).Debit(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	if got := mem.Users["c1"].Payment.Balance; got != 60 {
		t.Fatalf("balance = %v, want 60", got)
	}
}

func TestDebitConsumesCoupon(t *testing.T) {
	mem := storetest.New()
	mem.Users["c1"] = &models.User{
		ID:        "c1",
		Payment:   models.Payment{Balance: 100},
		CouponIDs: []string{"cp-1", "cp-2"},
	}

	b := &models.Booking{ClientID: "c1", WalletMoney: 10, CouponID: "cp-1"}
	if err := NewDebitor(mem).Debit(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	u := mem.Users["c1"]
	if len(u.CouponIDs) != 1 || u.CouponIDs[0] != "cp-2" {
		t.Fatalf("coupons = %v", u.CouponIDs)
	}
}

func TestDebitNothingToDo(t *testing.T) {
	mem := storetest.New()
	// no user seeded: must not even be looked up
	b := &models.Booking{ClientID: "c1"}
	if err := NewDebitor(mem).Debit(context.Background(), b); err != nil {
		t.Fatal(err)
	}
}

func TestDebitUnknownClient(t *testing.T) {
	mem := storetest.New()
	b := &models.Booking{ClientID: "ghost", WalletMoney: 10}
	if err := NewDebitor(mem).Debit(context.Background(), b); err == nil {
		t.Fatal("expected error")
	}
}
