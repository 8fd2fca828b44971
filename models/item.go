package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CatalogItem is a purchasable product and its remaining stock.
type CatalogItem struct {
	ItemID string          `json:"item_id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Stock  int64           `json:"stock"`
}

// Validate checks the record schema.
func (i CatalogItem) Validate() error {
	if i.ItemID == "" {
		return fmt.Errorf("item_id is empty")
	}
	if i.Price.IsNegative() {
		return fmt.Errorf("item %s: negative price %s", i.ItemID, i.Price)
	}
	if i.Stock < 0 {
		return fmt.Errorf("item %s: negative stock %d", i.ItemID, i.Stock)
	}
	return nil
}

// Catalog is the ordered set of catalog items.
type Catalog []CatalogItem

// Index returns the position of the item with the given id, or -1.
func (c Catalog) Index(itemID string) int {
	for i := range c {
		if c[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// Validate checks every item and that item ids are unique.
func (c Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for _, it := range c {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.ItemID]; dup {
			return fmt.Errorf("duplicate item_id %s", it.ItemID)
		}
		seen[it.ItemID] = struct{}{}
	}
	return nil
}
