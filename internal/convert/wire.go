// Package convert maps domain items to and from the JSON wire shape.
package convert

import (
	"fmt"

	"github.com/and161185/shoplist/internal/errs"
	"github.com/and161185/shoplist/internal/model"
)

// Item is the JSON representation of a shopping-list entry.
// OrderIndex is omitted when the server runs the identity strategy.
type Item struct {
	ID         *int64 `json:"id"`
	Name       string `json:"name"`
	IsShopped  bool   `json:"is_shopped"`
	OrderIndex *int32 `json:"order_index,omitempty"`
}

// SwapRequest names the two items to exchange. It is accepted as a JSON body
// or as query parameters.
type SwapRequest struct {
	IDA int64 `json:"id_a" schema:"id_a,required"`
	IDB int64 `json:"id_b" schema:"id_b,required"`
}

// --- server -> client ---

// ToWireItem converts a domain item. withIndex controls whether order_index is emitted.
func ToWireItem(it model.Item, withIndex bool) Item {
	id := it.ID
	out := Item{ID: &id, Name: it.Name, IsShopped: it.IsShopped}
	if withIndex {
		idx := it.OrderIndex
		out.OrderIndex = &idx
	}
	return out
}

// ToWireItems converts a list; the result is never nil so it encodes as [].
func ToWireItems(items []model.Item, withIndex bool) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, ToWireItem(it, withIndex))
	}
	return out
}

// --- client -> server ---

// FromWireNewItem converts a create request. The id is ignored and a missing
// order_index becomes 0.
func FromWireNewItem(in Item) model.NewItem {
	out := model.NewItem{Name: in.Name, IsShopped: in.IsShopped}
	if in.OrderIndex != nil {
		out.OrderIndex = *in.OrderIndex
	}
	return out
}

// FromWireReorder extracts the reorder target. The id is mandatory.
func FromWireReorder(in Item) (int64, int32, error) {
	if in.ID == nil {
		return 0, 0, fmt.Errorf("reorder: missing id: %w", errs.ErrValidation)
	}
	var idx int32
	if in.OrderIndex != nil {
		idx = *in.OrderIndex
	}
	return *in.ID, idx, nil
}

// FromDomainNewItem builds the wire form of a create intent.
func FromDomainNewItem(it model.NewItem) Item {
	idx := it.OrderIndex
	return Item{Name: it.Name, IsShopped: it.IsShopped, OrderIndex: &idx}
}

// ToDomainItem converts a listed wire item back to the domain type.
func ToDomainItem(in Item) model.Item {
	out := model.Item{Name: in.Name, IsShopped: in.IsShopped}
	if in.ID != nil {
		out.ID = *in.ID
	}
	if in.OrderIndex != nil {
		out.OrderIndex = *in.OrderIndex
	}
	return out
}
