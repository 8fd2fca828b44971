package coordinator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/changelog"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/metrics"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/store"
)

// MaxIdempotencyKeyLen bounds the length of an idempotency key.
const MaxIdempotencyKeyLen = 255

// PurchaseInput is a purchase request as received from the client.
type PurchaseInput struct {
	CardID     string
	CardNumber string
	Items      []models.CartItem
	Total      decimal.Decimal

	// IdempotencyKey is optional. A repeated key with the same request
	// returns the original transaction id without charging again.
	IdempotencyKey string
}

// PurchaseResult reports the ledger id of a purchase. Replayed is set when
// the id comes from an earlier request with the same idempotency key.
type PurchaseResult struct {
	ID       int64
	Replayed bool
}

func (in PurchaseInput) validate() error {
	if in.CardID == "" {
		return models.Errorf(models.KindMalformedRequest, "credit_card_id is required")
	}
	if in.CardNumber == "" {
		return models.Errorf(models.KindMalformedRequest, "credit_card_number is required")
	}
	for _, it := range in.Items {
		if it.ItemID == "" {
			return models.Errorf(models.KindMalformedRequest, "item_id is required")
		}
		if it.Quantity <= 0 {
			return models.Errorf(models.KindMalformedRequest, "quantity for %s must be positive", it.ItemID)
		}
	}
	if len(in.IdempotencyKey) > MaxIdempotencyKeyLen {
		return models.Errorf(models.KindMalformedRequest, "idempotency key longer than %d bytes", MaxIdempotencyKeyLen)
	}
	if in.Total.IsNegative() {
		return models.Errorf(models.KindMalformedRequest, "total must not be negative")
	}
	return nil
}

// fingerprint identifies the request content bound to an idempotency key.
func (in PurchaseInput) fingerprint() string {
	b, _ := json.Marshal(struct {
		CardID     string            `json:"c"`
		CardNumber string            `json:"n"`
		Items      []models.CartItem `json:"i"`
		Total      string            `json:"t"`
	}{in.CardID, in.CardNumber, in.Items, in.Total.String()})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Purchase charges the card, takes the items out of stock and appends a
// ledger entry, all in one commit.
func (c *Coordinator) Purchase(ctx context.Context, in PurchaseInput) (PurchaseResult, error) {
	res, err := c.purchase(ctx, in)
	result := outcome(err)
	if res.Replayed {
		result = metrics.ResultReplayed
	}
	c.metrics.Purchases.WithLabelValues(result).Inc()
	if err != nil {
		c.logFailure("purchase", err, zap.String("card_id", in.CardID))
	}
	return res, err
}

func (c *Coordinator) purchase(ctx context.Context, in PurchaseInput) (PurchaseResult, error) {
	if err := in.validate(); err != nil {
		return PurchaseResult{}, err
	}

	release, err := c.lock(ctx)
	if err != nil {
		return PurchaseResult{}, err
	}
	defer release()

	start := time.Now()
	var (
		res PurchaseResult
		txn models.Transaction
	)
	err = c.store.Update(func(tx store.Tx) error {
		if in.IdempotencyKey != "" {
			rec, err := tx.Idempotency(in.IdempotencyKey)
			if err != nil {
				return err
			}
			if rec != nil {
				if rec.Fingerprint != in.fingerprint() {
					return models.ErrIdempotencyConflict
				}
				res = PurchaseResult{ID: rec.TransactionID, Replayed: true}
				return nil
			}
		}

		items, bank, ledger, err := loadAll(tx)
		if err != nil {
			return err
		}
		if err := c.checkPurchase(in, items, bank); err != nil {
			return err
		}

		now := c.clock.Now()
		txn = applyPurchase(in, items, bank, &ledger, now)
		if err := saveAll(tx, items, bank, ledger); err != nil {
			return err
		}
		if in.IdempotencyKey != "" {
			err := tx.PutIdempotency(models.IdempotencyRecord{
				Key:           in.IdempotencyKey,
				TransactionID: txn.ID,
				Fingerprint:   in.fingerprint(),
				CreatedAt:     now,
			})
			if err != nil {
				return err
			}
		}
		res = PurchaseResult{ID: txn.ID}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	if res.Replayed {
		c.logger.Info("purchase replayed", zap.String("idempotency_key", in.IdempotencyKey), zap.Int64("id", res.ID))
		return res, nil
	}

	c.metrics.CommitLatencySec.Observe(time.Since(start).Seconds())
	c.logger.Info("purchase committed",
		zap.Int64("id", txn.ID),
		zap.String("card_id", txn.CardID),
		zap.String("total", txn.Total.String()),
		zap.Int("lines", len(txn.Items)))
	c.publish(ctx, changelog.Event{
		Type:          changelog.EventPurchase,
		TransactionID: txn.ID,
		CardID:        txn.CardID,
		Items:         txn.Items,
		Total:         txn.Total,
		At:            txn.Timestamp.Time,
	})
	return res, nil
}

// checkPurchase validates in against the loaded state. The first failing
// check wins: card, card number, item existence, stock, total, funds.
func (c *Coordinator) checkPurchase(in PurchaseInput, items models.Catalog, bank models.Bank) error {
	acc, ok := bank[in.CardID]
	if !ok {
		return models.ErrCardNotFound
	}
	if acc.CreditCardNumber != in.CardNumber {
		return models.ErrCardMismatch
	}

	for _, ci := range in.Items {
		if items.Index(ci.ItemID) < 0 {
			return models.Errorf(models.KindItemNotFound, "Item %s not found", ci.ItemID)
		}
	}

	// Repeated lines for one item draw from the same stock. wanted never
	// exceeds the stock, so the remainder cannot overflow.
	wanted := make(map[string]int64, len(in.Items))
	for _, ci := range in.Items {
		it := items[items.Index(ci.ItemID)]
		if it.Stock-wanted[ci.ItemID] < ci.Quantity {
			return models.Errorf(models.KindInsufficientStock, "Not enough stock for %s", it.Name)
		}
		wanted[ci.ItemID] += ci.Quantity
	}

	if c.verifyTotal {
		expected := decimal.Zero
		for _, ci := range in.Items {
			it := items[items.Index(ci.ItemID)]
			expected = expected.Add(it.Price.Mul(decimal.NewFromInt(ci.Quantity)))
		}
		if !expected.Equal(in.Total) {
			return models.Errorf(models.KindTotalMismatch, "Total %s does not match %s", in.Total, expected)
		}
	}

	if acc.Balance.LessThan(in.Total) {
		return models.ErrInsufficientFunds
	}
	return nil
}

// applyPurchase mutates the loaded state and returns the new ledger entry.
// in must already have passed checkPurchase against the same state.
func applyPurchase(in PurchaseInput, items models.Catalog, bank models.Bank, ledger *models.Ledger, now time.Time) models.Transaction {
	acc := bank[in.CardID]
	acc.Balance = acc.Balance.Sub(in.Total)
	bank[in.CardID] = acc

	for _, ci := range in.Items {
		items[items.Index(ci.ItemID)].Stock -= ci.Quantity
	}

	lines := make([]models.CartItem, len(in.Items))
	copy(lines, in.Items)
	txn := models.Transaction{
		ID:             ledger.NextID(),
		Timestamp:      models.Timestamp{Time: now},
		CardID:         in.CardID,
		CardNumber:     in.CardNumber,
		Items:          lines,
		Total:          in.Total,
		IdempotencyKey: in.IdempotencyKey,
	}
	*ledger = append(*ledger, txn)
	return txn
}
