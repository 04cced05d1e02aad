package shop

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

const (
	maxItemBody    = 1 << 20
	maxUploadBytes = 5 << 20
)

type Server struct {
	Shop   *Shop
	Images ImageStore
	Log    *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Shop.snapshots.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.Post("/products", s.createProduct)

	r.Get("/cart", s.getCart)
	r.Post("/cart/items", s.addItem)
	r.Put("/cart/items/{index}", s.updateItem)
	r.Delete("/cart/items/{index}", s.removeItem)

	r.Post("/purchase", s.purchase)

	return r
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Shop.Products())
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := s.Shop.Product(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad form", nil)
		return
	}

	name := r.FormValue("name")

	priceCents, err := strconv.ParseInt(r.FormValue("price_cents"), 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad price_cents", nil)
		return
	}

	stock, err := strconv.Atoi(r.FormValue("stock"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad stock", nil)
		return
	}

	// Reject bad scalar fields before touching the image store, so a
	// refused submission never leaves an orphaned blob behind.
	if err := validateProductFields(name, priceCents, stock); err != nil {
		s.writeShopError(w, r, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, ErrMissingImage.Error(), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad image upload", nil)
		return
	}

	image, err := s.Images.Save(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		if s.Log != nil {
			s.Log.Error("store image failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	p, err := s.Shop.CreateProduct(r.Context(), name, priceCents, stock, image)
	if err != nil {
		s.writeShopError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, p)
}

type cartView struct {
	Items      []CartItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	items, total := s.Shop.Cart()
	kit.WriteJSON(w, http.StatusOK, cartView{Items: items, TotalCents: total})
}

type addItemReq struct {
	ProductID string `json:"product_id"`
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := kit.DecodeStrict(w, r, maxItemBody, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	if err := s.Shop.AddToCart(r.Context(), req.ProductID); err != nil {
		s.writeShopError(w, r, err)
		return
	}

	s.getCart(w, r)
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		kit.WriteError(w, r, http.StatusNotFound, ErrItemNotFound.Error(), nil)
		return
	}

	var req updateItemReq
	if err := kit.DecodeStrict(w, r, maxItemBody, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Shop.UpdateQuantity(r.Context(), index, req.Quantity); err != nil {
		s.writeShopError(w, r, err)
		return
	}

	s.getCart(w, r)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		kit.WriteError(w, r, http.StatusNotFound, ErrItemNotFound.Error(), nil)
		return
	}

	if err := s.Shop.RemoveFromCart(r.Context(), index); err != nil {
		s.writeShopError(w, r, err)
		return
	}

	s.getCart(w, r)
}

func (s *Server) purchase(w http.ResponseWriter, r *http.Request) {
	if err := s.Shop.Purchase(r.Context()); err != nil {
		s.writeShopError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "thank you for your purchase"})
}

func (s *Server) writeShopError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrEmptyCart):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrMissingImage), errors.Is(err, ErrInvalidProduct):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrItemNotFound):
		kit.WriteError(w, r, http.StatusNotFound, err.Error(), nil)
	default:
		if s.Log != nil {
			s.Log.Error("shop operation failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
