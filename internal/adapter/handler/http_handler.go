package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rojasecr/MarketplaceQL/internal/core/domain"
	"github.com/rojasecr/MarketplaceQL/internal/core/service"
	"github.com/rojasecr/MarketplaceQL/internal/pkg/telemetry"
	"github.com/rojasecr/MarketplaceQL/pkg/globalid"
)

const (
	typeProduct = "Product"
	typeCart    = "Cart"
	typeItem    = "Item"
)

// CartService is the surface of the core the HTTP layer consumes.
type CartService interface {
	CreateCart(ctx context.Context) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID string) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	CompleteCart(ctx context.Context, cartID string) (*domain.CheckoutResult, error)
	ListProducts(ctx context.Context, inStockOnly bool) ([]domain.Product, error)
}

type HTTPHandler struct {
	carts  CartService
	logger *zap.Logger
}

func NewHTTPHandler(carts CartService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{carts: carts, logger: logger}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Post("/carts", h.CreateCart)
		r.Get("/carts/{id}", h.GetCart)
		r.Post("/carts/{id}/items", h.AddItem)
		r.Post("/carts/{id}/checkout", h.CompleteCart)
	})
	return r
}

type itemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
}

type cartResponse struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Total  int            `json:"total"`
	Items  []itemResponse `json:"items"`
}

type productResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Price          int    `json:"price"`
	InventoryCount int    `json:"inventory_count"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

type checkoutResponse struct {
	Success           bool     `json:"success"`
	InsufficientStock []string `json:"insufficient_stock"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.CreateCart(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResponse(cart))
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := globalid.DecodeTyped(chi.URLParam(r, "id"), typeCart)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cart id"})
		return
	}

	cart, err := h.carts.GetCart(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := globalid.DecodeTyped(chi.URLParam(r, "id"), typeCart)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cart id"})
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	productID, err := globalid.DecodeTyped(req.ProductID, typeProduct)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}

	cart, err := h.carts.AddItem(r.Context(), cartID, productID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) CompleteCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := globalid.DecodeTyped(chi.URLParam(r, "id"), typeCart)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cart id"})
		return
	}

	result, err := h.carts.CompleteCart(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Insufficient stock is a business outcome, not an error: 200 with
	// success=false and the full shortfall set.
	resp := checkoutResponse{
		Success:           result.Success,
		InsufficientStock: make([]string, 0, len(result.InsufficientStock)),
	}
	for _, productID := range result.InsufficientStock {
		resp.InsufficientStock = append(resp.InsufficientStock, globalid.Encode(typeProduct, productID))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	inStockOnly := r.URL.Query().Get("in_stock") == "true"

	products, err := h.carts.ListProducts(r.Context(), inStockOnly)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = productResponse{
			ID:             globalid.Encode(typeProduct, p.ID),
			Title:          p.Title,
			Price:          p.Price,
			InventoryCount: p.InventoryCount,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrCartNotFound):
		status, message = http.StatusNotFound, "cart not found"
	case errors.Is(err, domain.ErrProductNotFound):
		status, message = http.StatusNotFound, "product not found"
	case errors.Is(err, domain.ErrCartCompleted):
		status, message = http.StatusConflict, "cart already completed"
	case errors.Is(err, service.ErrCheckoutContention):
		status, message = http.StatusServiceUnavailable, "checkout contention, retry later"
	default:
		h.logger.Error("request failed", zap.Error(err))
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func toCartResponse(cart *domain.Cart) cartResponse {
	resp := cartResponse{
		ID:     globalid.Encode(typeCart, cart.ID),
		Status: string(cart.Status),
		Total:  cart.Total,
		Items:  make([]itemResponse, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, itemResponse{
			ID:        globalid.Encode(typeItem, item.ID),
			ProductID: globalid.Encode(typeProduct, item.ProductID),
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
