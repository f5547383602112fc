package pricing

import (
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// ShippingCharges is the flat fee added to every cart, whatever it holds.
const ShippingCharges = 25

var discountRate = decimal.NewFromFloat(domain.DiscountRate)

// Summary is the payment summary shown next to the cart.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

func ShippingFee() decimal.Decimal {
	return decimal.NewFromInt(ShippingCharges)
}

// LineTotal is price * quantity for a single line.
func LineTotal(item domain.CartItem) decimal.Decimal {
	return decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func CartSubtotal(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it))
	}
	return sum
}

func CartTotal(items []domain.CartItem) decimal.Decimal {
	return CartSubtotal(items).Add(ShippingFee())
}

// RoundCurrency rounds to cents, ties away from zero.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Discount is the reduced price derived from the listed one.
func Discount(price float64) float64 {
	return decimal.NewFromFloat(price).Mul(discountRate).InexactFloat64()
}

func Summarize(items []domain.CartItem) Summary {
	return Summary{
		Subtotal: RoundCurrency(CartSubtotal(items)),
		Shipping: RoundCurrency(ShippingFee()),
		Total:    RoundCurrency(CartTotal(items)),
	}
}
