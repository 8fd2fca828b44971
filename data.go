package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/config"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/store"
)

const (
	itemsFile        = "items.json"
	bankFile         = "bank.json"
	transactionsFile = "transactions.json"
)

type seedPaths struct {
	items        string
	bank         string
	transactions string
}

// seed replaces the stored state with the documents at paths.
func seed(cfg config.Config, log *zap.Logger, paths seedPaths) error {
	snap, err := readSnapshot(paths)
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Store.Path, cfg.Store.OpenTimeout)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Import(snap); err != nil {
		return err
	}
	log.Info("seeded store",
		zap.String("db", cfg.Store.Path),
		zap.Int("items", len(snap.Items)),
		zap.Int("accounts", len(snap.Bank)),
		zap.Int("transactions", len(snap.Transactions)))
	return nil
}

// export writes the stored state into dir.
func export(cfg config.Config, log *zap.Logger, dir string) error {
	s, err := store.New(cfg.Store.Path, cfg.Store.OpenTimeout)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.Export()
	if err != nil {
		return err
	}
	if err := writeSnapshot(dir, snap); err != nil {
		return err
	}
	log.Info("exported store", zap.String("db", cfg.Store.Path), zap.String("dir", dir))
	return nil
}

func readSnapshot(paths seedPaths) (store.Snapshot, error) {
	snap := store.Snapshot{Items: models.Catalog{}, Bank: models.Bank{}, Transactions: models.Ledger{}}
	if err := readDocument(paths.items, &snap.Items, false); err != nil {
		return store.Snapshot{}, err
	}
	if err := readDocument(paths.bank, &snap.Bank, false); err != nil {
		return store.Snapshot{}, err
	}
	if err := readDocument(paths.transactions, &snap.Transactions, true); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

func readDocument(path string, v any, optional bool) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && optional {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return models.Wrap(models.KindMalformedStore, "decode "+path, err)
	}
	return nil
}

func writeSnapshot(dir string, snap store.Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	docs := []struct {
		name string
		v    any
	}{
		{itemsFile, snap.Items},
		{bankFile, snap.Bank},
		{transactionsFile, snap.Transactions},
	}
	for _, d := range docs {
		b, err := json.MarshalIndent(d.v, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, d.name), b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", d.name, err)
		}
	}
	return nil
}
