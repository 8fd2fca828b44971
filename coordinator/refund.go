package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/changelog"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/store"
)

// RefundResult reports the id of the refunded transaction.
type RefundResult struct {
	ID int64
}

// Refund returns the items of a transaction to stock, credits its total back
// to the card and marks it refunded, all in one commit. A transaction can be
// refunded once.
func (c *Coordinator) Refund(ctx context.Context, transactionID int64) (RefundResult, error) {
	res, err := c.refund(ctx, transactionID)
	c.metrics.Refunds.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		c.logFailure("refund", err, zap.Int64("transaction_id", transactionID))
	}
	return res, err
}

func (c *Coordinator) refund(ctx context.Context, transactionID int64) (RefundResult, error) {
	release, err := c.lock(ctx)
	if err != nil {
		return RefundResult{}, err
	}
	defer release()

	start := time.Now()
	var txn models.Transaction
	err = c.store.Update(func(tx store.Tx) error {
		items, bank, ledger, err := loadAll(tx)
		if err != nil {
			return err
		}
		idx, err := checkRefund(transactionID, bank, ledger)
		if err != nil {
			return err
		}
		applyRefund(idx, items, bank, ledger, c.clock.Now())
		txn = ledger[idx]
		return saveAll(tx, items, bank, ledger)
	})
	if err != nil {
		return RefundResult{}, err
	}

	c.metrics.CommitLatencySec.Observe(time.Since(start).Seconds())
	c.logger.Info("refund committed",
		zap.Int64("id", txn.ID),
		zap.String("card_id", txn.CardID),
		zap.String("total", txn.Total.String()))
	c.publish(ctx, changelog.Event{
		Type:          changelog.EventRefund,
		TransactionID: txn.ID,
		CardID:        txn.CardID,
		Items:         txn.Items,
		Total:         txn.Total,
		At:            txn.RefundedAt.Time,
	})
	return RefundResult{ID: txn.ID}, nil
}

// checkRefund returns the ledger index of the refundable transaction.
func checkRefund(id int64, bank models.Bank, ledger models.Ledger) (int, error) {
	idx := ledger.Index(id)
	if idx < 0 {
		return -1, models.ErrTransactionNotFound
	}
	txn := ledger[idx]
	if txn.Refunded {
		return -1, models.ErrAlreadyRefunded
	}
	if _, ok := bank[txn.CardID]; !ok {
		return -1, models.ErrAccountNotFound
	}
	return idx, nil
}

// applyRefund restocks the line items still present in the catalog, credits
// the account and flags the transaction.
func applyRefund(idx int, items models.Catalog, bank models.Bank, ledger models.Ledger, now time.Time) {
	txn := &ledger[idx]
	for _, li := range txn.Items {
		if i := items.Index(li.ItemID); i >= 0 {
			items[i].Stock += li.Quantity
		}
	}

	acc := bank[txn.CardID]
	acc.Balance = acc.Balance.Add(txn.Total)
	bank[txn.CardID] = acc

	txn.Refunded = true
	txn.RefundedAt = &models.Timestamp{Time: now}
}
