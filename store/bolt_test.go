package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/shopspring/decimal"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "test.db"), time.Second)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSnapshot() Snapshot {
	return Snapshot{
		Items: models.Catalog{
			{ItemID: "A1", Name: "Water", Price: decimal.RequireFromString("1.50"), Stock: 10},
			{ItemID: "B2", Name: "Chips", Price: decimal.RequireFromString("2.25"), Stock: 4},
		},
		Bank: models.Bank{
			"C1": {CreditCardNumber: "1111", Balance: decimal.RequireFromString("100.00")},
		},
		Transactions: models.Ledger{},
	}
}

func TestFreshStoreReadsEmpty(t *testing.T) {
	s := newTestStore(t)
	snap, err := s.Export()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Items) != 0 || len(snap.Bank) != 0 || len(snap.Transactions) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if snap.Items == nil || snap.Bank == nil || snap.Transactions == nil {
		t.Fatal("expected non-nil empty collections")
	}
}

func TestImportExport(t *testing.T) {
	s := newTestStore(t)
	if err := s.Import(seedSnapshot()); err != nil {
		t.Fatalf("import: %v", err)
	}

	snap, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(snap.Items) != 2 || snap.Items[0].ItemID != "A1" || snap.Items[1].ItemID != "B2" {
		t.Fatalf("items not preserved in order: %+v", snap.Items)
	}
	if !snap.Items[0].Price.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("price changed: %s", snap.Items[0].Price)
	}
	if acc := snap.Bank["C1"]; acc.CreditCardNumber != "1111" || !acc.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("bank not preserved: %+v", snap.Bank)
	}
}

func TestImportRejectsInvalidSnapshot(t *testing.T) {
	s := newTestStore(t)
	snap := seedSnapshot()
	snap.Items[0].Stock = -1

	err := s.Import(snap)
	if !errors.Is(err, models.ErrMalformedStore) {
		t.Fatalf("expected malformed store, got %v", err)
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	if err := s.Import(seedSnapshot()); err != nil {
		t.Fatalf("import: %v", err)
	}

	boom := errors.New("boom")
	err := s.Update(func(tx Tx) error {
		items, err := tx.Items()
		if err != nil {
			return err
		}
		items[0].Stock = 0
		if err := tx.SaveItems(items); err != nil {
			return err
		}
		bank, err := tx.Bank()
		if err != nil {
			return err
		}
		bank["C1"] = models.Account{CreditCardNumber: "1111"}
		if err := tx.SaveBank(bank); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("expected fn error to be returned unchanged, got %v", err)
	}

	snap, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if snap.Items[0].Stock != 10 {
		t.Fatalf("items write leaked after rollback: stock=%d", snap.Items[0].Stock)
	}
	if !snap.Bank["C1"].Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("bank write leaked after rollback: %s", snap.Bank["C1"].Balance)
	}
}

func TestViewCannotSave(t *testing.T) {
	s := newTestStore(t)
	err := s.View(func(tx Tx) error {
		return tx.SaveItems(models.Catalog{})
	})
	if !errors.Is(err, models.ErrPersistenceFailure) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
}

func TestCorruptDocumentIsMalformed(t *testing.T) {
	s := newTestStore(t)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(KeyBank), []byte(`{"C1": {"balance": "abc"}`))
	})
	if err != nil {
		t.Fatalf("raw put: %v", err)
	}

	_, err = s.Export()
	if !errors.Is(err, models.ErrMalformedStore) {
		t.Fatalf("expected malformed store, got %v", err)
	}
}

func TestNegativeBalanceOnDiskIsMalformed(t *testing.T) {
	s := newTestStore(t)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(KeyBank), []byte(`{"C1": {"credit_card_number": "1111", "balance": -5}}`))
	})
	if err != nil {
		t.Fatalf("raw put: %v", err)
	}

	err = s.View(func(tx Tx) error {
		_, err := tx.Bank()
		return err
	})
	if !errors.Is(err, models.ErrMalformedStore) {
		t.Fatalf("expected malformed store, got %v", err)
	}
}

func TestIdempotencyRecords(t *testing.T) {
	s := newTestStore(t)

	err := s.View(func(tx Tx) error {
		rec, err := tx.Idempotency("missing")
		if err != nil {
			return err
		}
		if rec != nil {
			t.Fatalf("expected nil record, got %+v", rec)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	want := models.IdempotencyRecord{Key: "k1", TransactionID: 7, Fingerprint: "abc", CreatedAt: time.Now().UTC()}
	if err := s.Update(func(tx Tx) error { return tx.PutIdempotency(want) }); err != nil {
		t.Fatalf("put: %v", err)
	}

	err = s.View(func(tx Tx) error {
		rec, err := tx.Idempotency("k1")
		if err != nil {
			return err
		}
		if rec == nil || rec.TransactionID != 7 || rec.Fingerprint != "abc" {
			t.Fatalf("unexpected record: %+v", rec)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	err = s.Update(func(tx Tx) error { return tx.PutIdempotency(models.IdempotencyRecord{}) })
	if !errors.Is(err, models.ErrMalformedRequest) {
		t.Fatalf("expected malformed request for empty key, got %v", err)
	}
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := New(path, time.Second)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Import(seedSnapshot()); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := New(path, time.Second)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	snap, err := s2.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 items after reopen, got %d", len(snap.Items))
	}
}

func TestSaveRejectsInvalidDocuments(t *testing.T) {
	s := newTestStore(t)
	if err := s.Import(seedSnapshot()); err != nil {
		t.Fatalf("import: %v", err)
	}

	tests := []struct {
		name string
		fn   func(Tx) error
	}{
		{"negative stock", func(tx Tx) error {
			items := seedSnapshot().Items
			items[0].Stock = -9223372036854775798
			return tx.SaveItems(items)
		}},
		{"negative balance", func(tx Tx) error {
			return tx.SaveBank(models.Bank{"C1": {CreditCardNumber: "1111", Balance: decimal.NewFromInt(-1)}})
		}},
		{"ids out of order", func(tx Tx) error {
			return tx.SaveTransactions(models.Ledger{{ID: 2, CardID: "C1"}, {ID: 1, CardID: "C1"}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Update(tt.fn)
			if !errors.Is(err, models.ErrMalformedStore) {
				t.Fatalf("expected malformed store, got %v", err)
			}
		})
	}

	snap, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if snap.Items[0].Stock != 10 || !snap.Bank["C1"].Balance.Equal(decimal.NewFromInt(100)) || len(snap.Transactions) != 0 {
		t.Fatalf("invalid document was committed: %+v", snap)
	}
}
