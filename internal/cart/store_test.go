package cart

import (
	"sync"
	"testing"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64, price float64) domain.Product {
	return domain.Product{ID: id, Title: "product", Price: price}
}

type recorder struct {
	m       sync.Mutex
	changes []Change
}

func (r *recorder) CartChanged(c Change) {
	r.m.Lock()
	defer r.m.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) all() []Change {
	r.m.Lock()
	defer r.m.Unlock()
	return append([]Change(nil), r.changes...)
}

func TestAddToCart_NewProduct(t *testing.T) {
	s := NewStore()

	s.AddToCart(product(1, 10))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].Product.ID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 1, s.CartItemCount())
}

func TestAddToCart_SameProductIncrementsQuantity(t *testing.T) {
	s := NewStore()
	p := product(7, 3.5)

	for i := 0; i < 5; i++ {
		s.AddToCart(p)
	}

	items := s.Items()
	require.Len(t, items, 1, "one line per product id")
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, s.CartItemCount())
}

func TestAddToCart_KeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	s.AddToCart(product(3, 1))
	s.AddToCart(product(1, 1))
	s.AddToCart(product(2, 1))
	s.AddToCart(product(3, 1))

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, int64(3), items[0].Product.ID)
	assert.Equal(t, int64(1), items[1].Product.ID)
	assert.Equal(t, int64(2), items[2].Product.ID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddToCart_KeepsFirstSnapshot(t *testing.T) {
	s := NewStore()
	s.AddToCart(domain.Product{ID: 1, Title: "old", Price: 10})
	s.AddToCart(domain.Product{ID: 1, Title: "new", Price: 20})

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "old", items[0].Product.Title)
	assert.Equal(t, 10.0, items[0].Product.Price)
}

func TestRemoveFromCart(t *testing.T) {
	s := NewStore()
	s.AddToCart(product(1, 10))
	s.AddToCart(product(1, 10))
	s.AddToCart(product(2, 5))
	before := s.CartItemCount()

	s.RemoveFromCart(1)

	assert.Equal(t, before-2, s.CartItemCount())
	_, ok := s.Quantity(1)
	assert.False(t, ok)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].Product.ID)
}

func TestRemoveFromCart_UnknownIsNoop(t *testing.T) {
	s := NewStore()
	s.AddToCart(product(1, 10))
	rec := &recorder{}
	s.Subscribe(rec)

	s.RemoveFromCart(42)

	assert.Equal(t, 1, s.CartItemCount())
	assert.Empty(t, rec.all(), "no-op must not notify")
}

func TestIncreaseQuantity(t *testing.T) {
	s := NewStore()
	s.AddToCart(product(1, 10))

	s.IncreaseQuantity(1)
	s.IncreaseQuantity(1)

	q, ok := s.Quantity(1)
	require.True(t, ok)
	assert.Equal(t, 3, q)
}

func TestIncreaseQuantity_UnknownIsNoop(t *testing.T) {
	s := NewStore()
	s.IncreaseQuantity(1)
	assert.Empty(t, s.Items())
	assert.Equal(t, 0, s.CartItemCount())
}

func TestDecreaseQuantity_StopsAtOne(t *testing.T) {
	s := NewStore()
	p := product(1, 10)
	s.AddToCart(p)
	s.AddToCart(p)
	s.AddToCart(p)

	s.DecreaseQuantity(1)
	s.DecreaseQuantity(1)
	q, _ := s.Quantity(1)
	assert.Equal(t, 1, q)

	s.DecreaseQuantity(1)
	q, ok := s.Quantity(1)
	require.True(t, ok, "line must survive a decrease at quantity 1")
	assert.Equal(t, 1, q)
}

func TestDecreaseQuantity_UnknownIsNoop(t *testing.T) {
	s := NewStore()
	s.DecreaseQuantity(5)
	assert.Empty(t, s.Items())
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.AddToCart(product(1, 10))
	s.AddToCart(product(2, 10))

	s.Clear()

	assert.Empty(t, s.Items())
	assert.Equal(t, 0, s.CartItemCount())
}

func TestItems_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AddToCart(product(1, 10))

	items := s.Items()
	items[0].Quantity = 100

	q, _ := s.Quantity(1)
	assert.Equal(t, 1, q)
}

func TestSubscribe_ReceivesChangesInOrder(t *testing.T) {
	s := NewStore()
	rec := &recorder{}
	s.Subscribe(rec)

	s.AddToCart(product(1, 10))
	s.AddToCart(product(1, 10))
	s.DecreaseQuantity(1)
	s.DecreaseQuantity(1) // no-op at 1
	s.IncreaseQuantity(1)
	s.RemoveFromCart(1)
	s.Clear() // already empty

	got := rec.all()
	require.Len(t, got, 5)
	assert.Equal(t, Change{Op: OpAdd, ProductID: 1, Quantity: 1, ItemCount: 1}, got[0])
	assert.Equal(t, Change{Op: OpAdd, ProductID: 1, Quantity: 2, ItemCount: 2}, got[1])
	assert.Equal(t, Change{Op: OpDecrease, ProductID: 1, Quantity: 1, ItemCount: 1}, got[2])
	assert.Equal(t, Change{Op: OpIncrease, ProductID: 1, Quantity: 2, ItemCount: 2}, got[3])
	assert.Equal(t, Change{Op: OpRemove, ProductID: 1, Quantity: 0, ItemCount: 0}, got[4])
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := NewStore()
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec)

	s.AddToCart(product(1, 10))
	unsubscribe()
	s.AddToCart(product(1, 10))

	assert.Len(t, rec.all(), 1)
}

func TestSubscriberFunc(t *testing.T) {
	s := NewStore()
	var got []Op
	s.Subscribe(SubscriberFunc(func(c Change) { got = append(got, c.Op) }))

	s.AddToCart(product(1, 1))
	s.AddToCart(product(2, 1))
	s.Clear()

	assert.Equal(t, []Op{OpAdd, OpAdd, OpClear}, got)
}

func TestConcurrentAdds(t *testing.T) {
	s := NewStore()
	p := product(1, 10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddToCart(p)
		}()
	}
	wg.Wait()

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Quantity)
}

func TestSubscribe_SubscriberMayReadStore(t *testing.T) {
	s := NewStore()
	var seen []int
	s.Subscribe(SubscriberFunc(func(c Change) {
		seen = append(seen, s.CartItemCount())
		_ = s.Items()
	}))

	s.AddToCart(product(1, 10))
	s.IncreaseQuantity(1)

	assert.Equal(t, []int{1, 2}, seen)
}
