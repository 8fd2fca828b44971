// Package store provides the BoltDB-backed persistence adapter.
//
// The catalog, the bank and the ledger are each kept as one JSON document in
// the state bucket. All documents touched by a mutating operation are written
// inside a single bolt read-write transaction, so a purchase or refund is
// either committed as a whole or not at all.
//
// Readers use bolt read-only transactions. They never wait for writers and
// always observe the last committed state.
package store

import (
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
)

var (
	stateBucket       = []byte("state")
	idempotencyBucket = []byte("idempotency")
)

// Document keys inside the state bucket.
const (
	KeyItems        = "items"
	KeyBank         = "bank"
	KeyTransactions = "transactions"
)

// Tx is the view of the persisted state available inside a transaction.
type Tx interface {
	Items() (models.Catalog, error)
	Bank() (models.Bank, error)
	Transactions() (models.Ledger, error)

	SaveItems(models.Catalog) error
	SaveBank(models.Bank) error
	SaveTransactions(models.Ledger) error

	// Idempotency returns the record stored under key, or nil when absent.
	Idempotency(key string) (*models.IdempotencyRecord, error)
	PutIdempotency(rec models.IdempotencyRecord) error
}

// Snapshot is a full copy of the three documents.
type Snapshot struct {
	Items        models.Catalog
	Bank         models.Bank
	Transactions models.Ledger
}

// Store wraps a BoltDB database.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) the database at path and ensures its buckets exist.
// timeout bounds the wait for the file lock held by another process.
func New(path string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, models.Wrap(models.KindPersistenceFailure, "open database", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{stateBucket, idempotencyBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, models.Wrap(models.KindPersistenceFailure, "create buckets", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(Tx) error) error {
	var fnErr error
	err := s.db.View(func(tx *bolt.Tx) error {
		fnErr = fn(&boltTx{tx: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return models.Wrap(models.KindPersistenceFailure, "read transaction", err)
	}
	return nil
}

// Update runs fn in a read-write transaction. The transaction commits only
// when fn returns nil; any error from fn rolls back every write it made.
// A failed commit is reported as a persistence failure.
func (s *Store) Update(fn func(Tx) error) error {
	var fnErr error
	err := s.db.Update(func(tx *bolt.Tx) error {
		fnErr = fn(&boltTx{tx: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return models.Wrap(models.KindPersistenceFailure, "commit", err)
	}
	return nil
}

// Export returns a consistent copy of all three documents.
func (s *Store) Export() (Snapshot, error) {
	var snap Snapshot
	err := s.View(func(tx Tx) error {
		var err error
		if snap.Items, err = tx.Items(); err != nil {
			return err
		}
		if snap.Bank, err = tx.Bank(); err != nil {
			return err
		}
		snap.Transactions, err = tx.Transactions()
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Import validates snap and replaces all three documents with it in one
// transaction.
func (s *Store) Import(snap Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	return s.Update(func(tx Tx) error {
		if err := tx.SaveItems(snap.Items); err != nil {
			return err
		}
		if err := tx.SaveBank(snap.Bank); err != nil {
			return err
		}
		return tx.SaveTransactions(snap.Transactions)
	})
}

func validateSnapshot(snap Snapshot) error {
	for key, v := range map[string]interface{ Validate() error }{
		KeyItems:        snap.Items,
		KeyBank:         snap.Bank,
		KeyTransactions: snap.Transactions,
	} {
		if err := v.Validate(); err != nil {
			return models.Wrap(models.KindMalformedStore, "invalid "+key+" document", err)
		}
	}
	return nil
}

type boltTx struct {
	tx *bolt.Tx
}

func (t *boltTx) Items() (models.Catalog, error) {
	items := models.Catalog{}
	if err := t.load(KeyItems, &items); err != nil {
		return nil, err
	}
	if err := items.Validate(); err != nil {
		return nil, models.Wrap(models.KindMalformedStore, "invalid items document", err)
	}
	return items, nil
}

func (t *boltTx) Bank() (models.Bank, error) {
	bank := models.Bank{}
	if err := t.load(KeyBank, &bank); err != nil {
		return nil, err
	}
	if err := bank.Validate(); err != nil {
		return nil, models.Wrap(models.KindMalformedStore, "invalid bank document", err)
	}
	return bank, nil
}

func (t *boltTx) Transactions() (models.Ledger, error) {
	ledger := models.Ledger{}
	if err := t.load(KeyTransactions, &ledger); err != nil {
		return nil, err
	}
	if err := ledger.Validate(); err != nil {
		return nil, models.Wrap(models.KindMalformedStore, "invalid transactions document", err)
	}
	return ledger, nil
}

func (t *boltTx) SaveItems(items models.Catalog) error {
	if items == nil {
		items = models.Catalog{}
	}
	if err := items.Validate(); err != nil {
		return models.Wrap(models.KindMalformedStore, "refusing to save invalid items document", err)
	}
	return t.save(KeyItems, items)
}

func (t *boltTx) SaveBank(bank models.Bank) error {
	if bank == nil {
		bank = models.Bank{}
	}
	if err := bank.Validate(); err != nil {
		return models.Wrap(models.KindMalformedStore, "refusing to save invalid bank document", err)
	}
	return t.save(KeyBank, bank)
}

func (t *boltTx) SaveTransactions(ledger models.Ledger) error {
	if ledger == nil {
		ledger = models.Ledger{}
	}
	if err := ledger.Validate(); err != nil {
		return models.Wrap(models.KindMalformedStore, "refusing to save invalid transactions document", err)
	}
	return t.save(KeyTransactions, ledger)
}

func (t *boltTx) Idempotency(key string) (*models.IdempotencyRecord, error) {
	v := t.tx.Bucket(idempotencyBucket).Get([]byte(key))
	if v == nil {
		return nil, nil
	}
	var rec models.IdempotencyRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, models.Wrap(models.KindMalformedStore, "decode idempotency record", err)
	}
	return &rec, nil
}

func (t *boltTx) PutIdempotency(rec models.IdempotencyRecord) error {
	if rec.Key == "" {
		return models.Errorf(models.KindMalformedRequest, "empty idempotency key")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return models.Wrap(models.KindPersistenceFailure, "encode idempotency record", err)
	}
	if err := t.tx.Bucket(idempotencyBucket).Put([]byte(rec.Key), data); err != nil {
		return models.Wrap(models.KindPersistenceFailure, "save idempotency record", err)
	}
	return nil
}

// load decodes the document stored under key into v. A missing document
// leaves v untouched, so a fresh database reads as empty collections.
func (t *boltTx) load(key string, v any) error {
	data := t.tx.Bucket(stateBucket).Get([]byte(key))
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return models.Wrap(models.KindMalformedStore, "decode "+key+" document", err)
	}
	return nil
}

func (t *boltTx) save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return models.Wrap(models.KindPersistenceFailure, "encode "+key+" document", err)
	}
	if err := t.tx.Bucket(stateBucket).Put([]byte(key), data); err != nil {
		return models.Wrap(models.KindPersistenceFailure, "save "+key+" document", err)
	}
	return nil
}
