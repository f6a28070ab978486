// Package model defines domain entities used by services and repositories.
package model

// Item is a single shopping-list entry.
type Item struct {
	ID         int64  // store-assigned PK; the position itself under the identity strategy
	Name       string // never empty
	IsShopped  bool
	OrderIndex int32 // sort key under the index strategy, ignored otherwise
}

// NewItem is a create intent; the store assigns the id.
type NewItem struct {
	Name       string
	IsShopped  bool
	OrderIndex int32
}

// Position is the ordering projection of a row read inside a reorder transaction.
type Position struct {
	ID         int64
	OrderIndex int32
}
