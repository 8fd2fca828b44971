package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account is a payment card and its available balance.
type Account struct {
	CreditCardNumber string          `json:"credit_card_number"`
	Balance          decimal.Decimal `json:"balance"`
}

// Bank maps card ids to accounts.
type Bank map[string]Account

// Validate checks every account.
func (b Bank) Validate() error {
	for id, acc := range b {
		if id == "" {
			return fmt.Errorf("empty card id")
		}
		if acc.CreditCardNumber == "" {
			return fmt.Errorf("card %s: credit_card_number is empty", id)
		}
		if acc.Balance.IsNegative() {
			return fmt.Errorf("card %s: negative balance %s", id, acc.Balance)
		}
	}
	return nil
}
