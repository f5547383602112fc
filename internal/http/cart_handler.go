package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/shopspring/decimal"
)

const DefaultBadgeCap = 9

type CartHandler struct {
	catalog  Catalog
	sessions *session.Manager
	timeout  time.Duration
	badgeCap int
}

func NewCartHandler(catalog Catalog, sessions *session.Manager, timeout time.Duration, badgeCap int) *CartHandler {
	if badgeCap <= 0 {
		badgeCap = DefaultBadgeCap
	}
	return &CartHandler{
		catalog:  catalog,
		sessions: sessions,
		timeout:  timeout,
		badgeCap: badgeCap,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type CartLineResponse struct {
	ProductID   int64           `json:"product_id"`
	Title       string          `json:"title"`
	Image       string          `json:"image"`
	Price       float64         `json:"price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	CanDecrease bool            `json:"can_decrease"`
}

type CartResponse struct {
	Items     []CartLineResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Badge     string             `json:"badge"`
	Summary   pricing.Summary    `json:"summary"`
	Message   string             `json:"message,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.view(sess.Cart))
}

// AddItem looks the product up in the catalog and adds one unit of it.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.FetchProductByID(ctx, req.ProductID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	sess.Cart.AddToCart(p)
	respondJSON(w, http.StatusCreated, h.view(sess.Cart))
}

func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*cart.Store).IncreaseQuantity)
}

// DecreaseQuantity leaves a line at quantity 1 untouched.
func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*cart.Store).DecreaseQuantity)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*cart.Store).RemoveFromCart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	sess.Cart.Clear()
	respondJSON(w, http.StatusOK, h.view(sess.Cart))
}

// EndSession destroys the caller's session and its cart.
func (h *CartHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	h.sessions.End(sess.ID)

	w.Header().Del(SessionHeader)
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// mutate applies op to the line in the URL. Unknown ids are a silent no-op.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, op func(*cart.Store, int64)) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	op(sess.Cart, productID)
	respondJSON(w, http.StatusOK, h.view(sess.Cart))
}

func (h *CartHandler) view(store *cart.Store) CartResponse {
	snapshot := store.Snapshot()

	resp := CartResponse{
		Items:     make([]CartLineResponse, 0, len(snapshot.Items)),
		ItemCount: snapshot.ItemCount(),
		Summary:   pricing.Summarize(snapshot.Items),
	}
	for _, it := range snapshot.Items {
		resp.Items = append(resp.Items, CartLineResponse{
			ProductID:   it.Product.ID,
			Title:       it.Product.Title,
			Image:       it.Product.Image,
			Price:       it.Product.Price,
			Quantity:    it.Quantity,
			LineTotal:   pricing.RoundCurrency(pricing.LineTotal(it)),
			CanDecrease: it.Quantity > 1,
		})
	}
	resp.Badge = badge(resp.ItemCount, h.badgeCap)
	if snapshot.IsEmpty() {
		resp.Message = msgCartEmpty
	}
	return resp
}

// badge is the header cart counter: hidden at zero, capped as "N+".
func badge(count, limit int) string {
	switch {
	case count <= 0:
		return ""
	case count > limit:
		return strconv.Itoa(limit) + "+"
	default:
		return strconv.Itoa(count)
	}
}
