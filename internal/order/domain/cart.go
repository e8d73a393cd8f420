package domain

// CartItem is one `(productId, quantity)` pair of the cart snapshot.
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

// CartSnapshot is the cart contents read once at saga start. It is owned by
// the in-flight saga instance and never re-read.
type CartSnapshot struct {
	Items []CartItem
}

func (s CartSnapshot) Empty() bool {
	return len(s.Items) == 0
}

// DistinctProductIDs returns the product ids to quote, in first-seen order.
func (s CartSnapshot) DistinctProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(s.Items))
	ids := make([]int64, 0, len(s.Items))

	for _, item := range s.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	return ids
}

// ProductQuote is the catalog's answer for one product at saga start:
// immutable once read, used only to build the order's price snapshot.
type ProductQuote struct {
	ProductID int64 `json:"product_id"`
	Price     Money `json:"price"`
	Stock     int64 `json:"stock"`
}

// Reservation is a transient stock hold acquired during the saga. It expires
// on its own if the saga crashes before committing or releasing it.
type Reservation struct {
	ID        int64
	ProductID int64
	Quantity  int32
}
