package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_storefront/internal/catalog"
	"go.uber.org/zap"
)

const (
	msgProductNotFound = "Product not found. Please visit home to see all available products"
	msgPageNotFound    = "Page not found."
	msgNoSearchResults = "No products found matching your query."
	msgCartEmpty       = "Cart is empty"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleCatalogError converts catalog client errors to HTTP responses.
// Fetch failures are retryable so the client can offer a retry instead of spinning.
func handleCatalogError(w http.ResponseWriter, err error) {
	var resp ErrorResponse
	var httpStatus int

	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		httpStatus = http.StatusNotFound
		resp = ErrorResponse{Error: msgProductNotFound, Code: "product_not_found"}
	case errors.Is(err, catalog.ErrBreakerOpen):
		httpStatus = http.StatusServiceUnavailable
		resp = ErrorResponse{Error: "catalog temporarily unavailable", Code: "service_unavailable", Retryable: true}
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus = http.StatusGatewayTimeout
		resp = ErrorResponse{Error: "catalog request timed out", Code: "timeout", Retryable: true}
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		httpStatus = http.StatusBadGateway
		resp = ErrorResponse{Error: "failed to load products", Code: "catalog_unavailable", Retryable: true}
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this
		httpStatus = 499
		resp = ErrorResponse{Error: "request canceled", Code: "canceled"}
	default:
		httpStatus = http.StatusInternalServerError
		resp = ErrorResponse{Error: "internal server error", Code: "internal_error"}
	}
	if httpStatus >= http.StatusInternalServerError {
		resp.Details = err.Error()
	}

	respondJSON(w, httpStatus, resp)
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "page_not_found", msgPageNotFound)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}
