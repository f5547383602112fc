package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/fjod/go_storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Catalog is the part of the catalog client the handlers need.
type Catalog interface {
	FetchAllProducts(ctx context.Context) ([]domain.Product, error)
	FetchProductByID(ctx context.Context, id int64) (domain.Product, error)
	FetchProductsBySearchQuery(ctx context.Context, query string) ([]domain.Product, error)
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(catalog Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ListingResponse struct {
	Query    string            `json:"query,omitempty"`
	Products []domain.Product  `json:"products"`
	Sort     catalog.SortOrder `json:"sort"`
	Message  string            `json:"message,omitempty"`
	// Superseded is set when a newer listing request of the same session won the race.
	Superseded bool `json:"superseded,omitempty"`
}

type SortRequestDTO struct {
	Key string `json:"key"`
}

type ProductDetailResponse struct {
	domain.Product
	InCart int `json:"in_cart"`
}

// List serves the home listing, or search results when q is set.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	ticket := sess.BeginListing(query)

	var products []domain.Product
	var err error
	if query == "" {
		products, err = h.catalog.FetchAllProducts(ctx)
	} else {
		products, err = h.catalog.FetchProductsBySearchQuery(ctx, query)
	}
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	var resp ListingResponse
	if sess.CommitListing(ticket, products) {
		resp = listingResponse(sess.Listing())
	} else {
		logger.From(r.Context()).Debug("listing superseded", zap.String("query", query))
		resp = ListingResponse{Query: query, Products: products, Superseded: true}
		if len(products) == 0 && query != "" {
			resp.Message = msgNoSearchResults
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// Sort re-sorts the session's current listing. Repeating the same key flips the direction.
func (h *ProductHandler) Sort(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req SortRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	key, err := catalog.ParseSortKey(req.Key)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_sort_key", "key must be one of: price, rating")
		return
	}

	respondJSON(w, http.StatusOK, listingResponse(sess.SortListing(key)))
}

// Get serves the product detail view.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.FetchProductByID(ctx, productID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	qty, _ := sess.Cart.Quantity(p.ID)
	respondJSON(w, http.StatusOK, ProductDetailResponse{Product: p, InCart: qty})
}

func listingResponse(l session.Listing) ListingResponse {
	resp := ListingResponse{Query: l.Query, Products: l.Products, Sort: l.Sort}
	if resp.Products == nil {
		resp.Products = []domain.Product{}
	}
	if len(resp.Products) == 0 && l.Query != "" {
		resp.Message = msgNoSearchResults
	}
	return resp
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

func requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := sessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "internal_error", errNoSession.Error())
		return nil, false
	}
	return sess, true
}

var errNoSession = errors.New("no session bound to request")
