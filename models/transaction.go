package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one requested line of a purchase. The same shape is recorded
// as a line item of the resulting Transaction.
type CartItem struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int64  `json:"quantity" validate:"gt=0"`
}

// Transaction is a ledger entry created by a purchase.
//
// Refunded flips from false to true once, on refund. CardNumber is the number
// supplied at purchase time and is not re-validated afterwards.
type Transaction struct {
	ID             int64           `json:"id"`
	Timestamp      Timestamp       `json:"timestamp"`
	CardID         string          `json:"credit_card_id"`
	CardNumber     string          `json:"credit_card_number"`
	Items          []CartItem      `json:"items"`
	Total          decimal.Decimal `json:"total"`
	Refunded       bool            `json:"refunded"`
	RefundedAt     *Timestamp      `json:"refunded_at,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// Validate checks the record schema.
func (t Transaction) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("transaction id %d is not positive", t.ID)
	}
	if t.CardID == "" {
		return fmt.Errorf("transaction %d: credit_card_id is empty", t.ID)
	}
	if t.Total.IsNegative() {
		return fmt.Errorf("transaction %d: negative total %s", t.ID, t.Total)
	}
	for _, it := range t.Items {
		if it.ItemID == "" || it.Quantity <= 0 {
			return fmt.Errorf("transaction %d: invalid line item %+v", t.ID, it)
		}
	}
	if t.RefundedAt != nil && !t.Refunded {
		return fmt.Errorf("transaction %d: refunded_at set on unrefunded transaction", t.ID)
	}
	return nil
}

// Ledger is the sequence of transactions in ascending id order.
type Ledger []Transaction

// Index returns the position of the transaction with the given id, or -1.
func (l Ledger) Index(id int64) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// NextID returns the id the next purchase receives: the largest id plus one.
func (l Ledger) NextID() int64 {
	var maxID int64
	for _, t := range l {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

// Validate checks every transaction and that ids strictly increase.
func (l Ledger) Validate() error {
	var prev int64
	for _, t := range l {
		if err := t.Validate(); err != nil {
			return err
		}
		if t.ID <= prev {
			return fmt.Errorf("transaction id %d does not follow %d", t.ID, prev)
		}
		prev = t.ID
	}
	return nil
}

// IdempotencyRecord remembers which transaction a purchase idempotency key
// produced and a fingerprint of the request that used it.
type IdempotencyRecord struct {
	Key           string    `json:"key"`
	TransactionID int64     `json:"transaction_id"`
	Fingerprint   string    `json:"fingerprint"`
	CreatedAt     time.Time `json:"created_at"`
}
