// Package models defines the domain types of the point-of-sale server: the
// catalog, the bank of payment accounts and the transaction ledger.
//
// Monetary values are fixed-point decimals. They encode to JSON as bare
// numbers so the persisted documents keep the shape the POS client expects.
package models

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
