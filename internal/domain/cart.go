package domain

// Cart holds one session's line items, unique by product id, in insertion order.
type Cart struct {
	Items []CartItem `json:"items"`
}

// CartItem keeps the product snapshot taken when it was first added.
// Quantity is always >= 1; a line that would drop to 0 is removed instead.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// ItemCount is the sum of all line quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
