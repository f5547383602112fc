package cart_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
)

type cartTestContext struct {
	store *cart.Store
}

func (c *cartTestContext) reset() {
	c.store = cart.NewStore()
}

func (c *cartTestContext) anEmptyCart() error {
	c.reset()
	return nil
}

func (c *cartTestContext) iAddProductPricedToTheCart(id int64, price float64) error {
	c.store.AddToCart(domain.Product{ID: id, Price: price})
	return nil
}

func (c *cartTestContext) iAddProductPricedToTheCartTimes(id int64, price float64, times int) error {
	for i := 0; i < times; i++ {
		c.store.AddToCart(domain.Product{ID: id, Price: price})
	}
	return nil
}

func (c *cartTestContext) productPricedWithQuantityInTheCart(id int64, price float64, qty int) error {
	c.store.AddToCart(domain.Product{ID: id, Price: price})
	for i := 1; i < qty; i++ {
		c.store.IncreaseQuantity(id)
	}
	return nil
}

func (c *cartTestContext) iDecreaseTheQuantityOfProduct(id int64) error {
	c.store.DecreaseQuantity(id)
	return nil
}

func (c *cartTestContext) iRemoveProductFromTheCart(id int64) error {
	c.store.RemoveFromCart(id)
	return nil
}

func (c *cartTestContext) theCartItemCountIs(want int) error {
	if got := c.store.CartItemCount(); got != want {
		return fmt.Errorf("expected item count %d, got %d", want, got)
	}
	return nil
}

func (c *cartTestContext) theCartHasLine(want int) error {
	if got := len(c.store.Items()); got != want {
		return fmt.Errorf("expected %d lines, got %d", want, got)
	}
	return nil
}

func (c *cartTestContext) productHasQuantity(id int64, want int) error {
	got, ok := c.store.Quantity(id)
	if !ok {
		return fmt.Errorf("product %d is not in the cart", id)
	}
	if got != want {
		return fmt.Errorf("expected quantity %d for product %d, got %d", want, id, got)
	}
	return nil
}

func (c *cartTestContext) theCartSubtotalIs(want string) error {
	got := pricing.RoundCurrency(pricing.CartSubtotal(c.store.Items())).StringFixed(2)
	if got != want {
		return fmt.Errorf("expected subtotal %s, got %s", want, got)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(want string) error {
	got := pricing.RoundCurrency(pricing.CartTotal(c.store.Items())).StringFixed(2)
	if got != want {
		return fmt.Errorf("expected total %s, got %s", want, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^product (\d+) priced ([\d.]+) with quantity (\d+) in the cart$`, tc.productPricedWithQuantityInTheCart)

	// When steps
	ctx.Step(`^I add product (\d+) priced ([\d.]+) to the cart$`, tc.iAddProductPricedToTheCart)
	ctx.Step(`^I add product (\d+) priced ([\d.]+) to the cart (\d+) times$`, tc.iAddProductPricedToTheCartTimes)
	ctx.Step(`^I decrease the quantity of product (\d+)$`, tc.iDecreaseTheQuantityOfProduct)
	ctx.Step(`^I remove product (\d+) from the cart$`, tc.iRemoveProductFromTheCart)

	// Then steps
	ctx.Step(`^the cart item count is (\d+)$`, tc.theCartItemCountIs)
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLine)
	ctx.Step(`^product (\d+) has quantity (\d+)$`, tc.productHasQuantity)
	ctx.Step(`^the cart subtotal is "([^"]*)"$`, tc.theCartSubtotalIs)
	ctx.Step(`^the cart total is "([^"]*)"$`, tc.theCartTotalIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
