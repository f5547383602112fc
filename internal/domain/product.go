package domain

// DiscountRate is the share of the listed price shown as the discounted price.
const DiscountRate = 0.9

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
	// Discount is derived by the catalog client at fetch time, never sent by the API.
	Discount float64 `json:"discount"`
}
