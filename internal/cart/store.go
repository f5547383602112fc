package cart

import (
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
)

type Op string

const (
	OpAdd      Op = "add"
	OpRemove   Op = "remove"
	OpIncrease Op = "increase"
	OpDecrease Op = "decrease"
	OpClear    Op = "clear"
)

// Change describes one mutation that altered the cart.
type Change struct {
	Op        Op
	ProductID int64
	// Quantity is the line quantity after the change, 0 when the line is gone.
	Quantity  int
	ItemCount int
}

type Subscriber interface {
	CartChanged(c Change)
}

type SubscriberFunc func(c Change)

func (f SubscriberFunc) CartChanged(c Change) { f(c) }

// Store is the single owner of a cart. All mutations go through its methods.
type Store struct {
	mu    sync.Mutex
	items []domain.CartItem

	// notifyMu keeps notifications in mutation order without holding mu while subscribers run.
	notifyMu    sync.Mutex
	subMu       sync.RWMutex
	subscribers map[int]Subscriber
	nextSubID   int
}

func NewStore() *Store {
	return &Store{subscribers: make(map[int]Subscriber)}
}

// Subscribe registers s for change notifications and returns a function that removes it.
// Subscribers run while the store serializes notifications: they may read the store
// but must not mutate it, or the mutation deadlocks.
func (s *Store) Subscribe(sub Subscriber) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = sub
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// AddToCart appends p with quantity 1, or increments the existing line for p.ID.
func (s *Store) AddToCart(p domain.Product) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(p.ID)
	if idx != -1 {
		s.items[idx].Quantity++
	} else {
		s.items = append(s.items, domain.CartItem{Product: p, Quantity: 1})
		idx = len(s.items) - 1
	}
	c := Change{Op: OpAdd, ProductID: p.ID, Quantity: s.items[idx].Quantity, ItemCount: s.countLocked()}
	s.mu.Unlock()

	s.notify(c)
}

// RemoveFromCart deletes the line for productID. Unknown ids are ignored.
func (s *Store) RemoveFromCart(productID int64) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	c := Change{Op: OpRemove, ProductID: productID, ItemCount: s.countLocked()}
	s.mu.Unlock()

	s.notify(c)
}

// IncreaseQuantity adds one to the line for productID. There is no upper bound.
func (s *Store) IncreaseQuantity(productID int64) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	s.items[idx].Quantity++
	c := Change{Op: OpIncrease, ProductID: productID, Quantity: s.items[idx].Quantity, ItemCount: s.countLocked()}
	s.mu.Unlock()

	s.notify(c)
}

// DecreaseQuantity subtracts one from the line for productID while its quantity is above 1.
// At quantity 1 nothing happens: the line has to be removed with RemoveFromCart.
func (s *Store) DecreaseQuantity(productID int64) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx == -1 || s.items[idx].Quantity <= 1 {
		s.mu.Unlock()
		return
	}
	s.items[idx].Quantity--
	c := Change{Op: OpDecrease, ProductID: productID, Quantity: s.items[idx].Quantity, ItemCount: s.countLocked()}
	s.mu.Unlock()

	s.notify(c)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	s.items = nil
	s.mu.Unlock()

	s.notify(Change{Op: OpClear})
}

func (s *Store) CartItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

// Quantity returns the quantity of the line for productID and whether it exists.
func (s *Store) Quantity(productID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(productID)
	if idx == -1 {
		return 0, false
	}
	return s.items[idx].Quantity, true
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Snapshot() domain.Cart {
	return domain.Cart{Items: s.Items()}
}

func (s *Store) indexOf(productID int64) int {
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) countLocked() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) notify(c Change) {
	s.subMu.RLock()
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.subMu.RUnlock()

	for _, sub := range subs {
		sub.CartChanged(c)
	}
}
