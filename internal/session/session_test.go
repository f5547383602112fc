package session

import (
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingFixture() []domain.Product {
	return []domain.Product{
		{ID: 1, Title: "Backpack", Price: 109.95, Rating: domain.Rating{Rate: 3.9}},
		{ID: 2, Title: "T-Shirt", Price: 22.3, Rating: domain.Rating{Rate: 4.1}},
		{ID: 3, Title: "Jacket", Price: 55.99, Rating: domain.Rating{Rate: 4.7}},
	}
}

func productIDs(products []domain.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestCommitListing_StaleResultDiscarded(t *testing.T) {
	s := newSession("s1", time.Now())

	slow := s.BeginListing("shirt")
	fast := s.BeginListing("jacket")

	require.True(t, s.CommitListing(fast, []domain.Product{{ID: 3, Title: "Jacket"}}))
	assert.False(t, s.CommitListing(slow, []domain.Product{{ID: 2, Title: "T-Shirt"}}))

	l := s.Listing()
	assert.Equal(t, "jacket", l.Query)
	assert.Equal(t, []int64{3}, productIDs(l.Products))
}

func TestSortListing_Toggles(t *testing.T) {
	s := newSession("s1", time.Now())
	require.True(t, s.CommitListing(s.BeginListing(""), listingFixture()))

	l := s.SortListing(catalog.SortByPrice)
	assert.Equal(t, catalog.SortOrder{Key: catalog.SortByPrice, Direction: catalog.Ascending}, l.Sort)
	assert.Equal(t, []int64{2, 3, 1}, productIDs(l.Products))

	l = s.SortListing(catalog.SortByPrice)
	assert.Equal(t, catalog.Descending, l.Sort.Direction)
	assert.Equal(t, []int64{1, 3, 2}, productIDs(l.Products))

	l = s.SortListing(catalog.SortByRating)
	assert.Equal(t, catalog.SortOrder{Key: catalog.SortByRating, Direction: catalog.Ascending}, l.Sort)
	assert.Equal(t, []int64{1, 2, 3}, productIDs(l.Products))
}

func TestCommitListing_KeepsSortForSameQuery(t *testing.T) {
	s := newSession("s1", time.Now())
	require.True(t, s.CommitListing(s.BeginListing(""), listingFixture()))
	s.SortListing(catalog.SortByPrice)

	require.True(t, s.CommitListing(s.BeginListing(""), listingFixture()))
	l := s.Listing()
	assert.Equal(t, catalog.SortByPrice, l.Sort.Key)
	assert.Equal(t, []int64{2, 3, 1}, productIDs(l.Products))

	require.True(t, s.CommitListing(s.BeginListing("t"), listingFixture()))
	l = s.Listing()
	assert.Equal(t, catalog.SortOrder{}, l.Sort, "a new query resets the sort")
	assert.Equal(t, []int64{1, 2, 3}, productIDs(l.Products))
}

func TestListing_ReturnsCopy(t *testing.T) {
	s := newSession("s1", time.Now())
	s.CommitListing(s.BeginListing(""), listingFixture())

	l := s.Listing()
	l.Products[0].Title = "changed"

	assert.Equal(t, "Backpack", s.Listing().Products[0].Title)
}
