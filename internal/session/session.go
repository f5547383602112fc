package session

import (
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
)

// Listing is the product list a session is currently looking at.
type Listing struct {
	Query    string            `json:"query"`
	Products []domain.Product  `json:"products"`
	Sort     catalog.SortOrder `json:"sort"`
}

// Session owns one visitor's cart and listing view.
type Session struct {
	ID   string
	Cart *cart.Store

	listingGuard Latest

	mu       sync.Mutex
	listing  Listing
	lastSeen time.Time
	detach   func()
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		Cart:     cart.NewStore(),
		lastSeen: now,
		detach:   func() {},
	}
}

// BeginListing marks query as the listing this session wants next.
func (s *Session) BeginListing(query string) Ticket {
	return s.listingGuard.Begin(query)
}

// CommitListing stores products as the current listing unless a newer listing request was issued.
// The active sort order is re-applied to the fresh products.
func (s *Session) CommitListing(t Ticket, products []domain.Product) bool {
	return s.listingGuard.Commit(t, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		order := s.listing.Sort
		if s.listing.Query != t.Key {
			order = catalog.SortOrder{}
		}
		catalog.SortProducts(products, order)
		s.listing = Listing{Query: t.Key, Products: products, Sort: order}
	})
}

// SortListing re-sorts the current listing by key, toggling direction on repeated keys.
func (s *Session) SortListing(key catalog.SortKey) Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listing.Sort = catalog.NextSortOrder(s.listing.Sort, key)
	catalog.SortProducts(s.listing.Products, s.listing.Sort)
	return s.listingLocked()
}

func (s *Session) Listing() Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listingLocked()
}

func (s *Session) listingLocked() Listing {
	out := s.listing
	out.Products = append([]domain.Product(nil), s.listing.Products...)
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// end destroys the session's state.
func (s *Session) end() {
	s.mu.Lock()
	detach := s.detach
	s.listing = Listing{}
	s.mu.Unlock()

	s.Cart.Clear()
	detach()
}
