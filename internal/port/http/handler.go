package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/notify"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 4 << 10

type CartHandler struct {
	store service.CartStore
	log   logger.Logger
}

func NewCartHandler(store service.CartStore, log logger.Logger) *CartHandler {
	return &CartHandler{store: store, log: log.With("component", "http_handler")}
}

// MutationResponse is returned by every cart mutation. A rejected mutation
// still answers 200: the cart is unchanged and Notices says why.
type MutationResponse struct {
	Cart    entity.Cart     `json:"cart"`
	Notices []notify.Notice `json:"notices"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type updateAmountRequest struct {
	Amount *int `json:"amount"`
}

func (h *CartHandler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, MutationResponse{Cart: h.store.Cart(), Notices: []notify.Notice{}})
}

func (h *CartHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.store.Summary())
}

func (h *CartHandler) HandleAddProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	ctx, rec := notify.WithRecorder(r.Context())
	h.store.AddProduct(ctx, id)
	h.respondMutation(w, rec)
}

func (h *CartHandler) HandleRemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	ctx, rec := notify.WithRecorder(r.Context())
	h.store.RemoveProduct(ctx, id)
	h.respondMutation(w, rec)
}

func (h *CartHandler) HandleUpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req updateAmountRequest
	if err := decodeBody(r, &req); err != nil {
		h.log.Warnf("Invalid request body for product %d: %v", id, err)
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Amount == nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount is required"})
		return
	}

	ctx, rec := notify.WithRecorder(r.Context())
	h.store.UpdateProductAmount(ctx, service.UpdateProductAmount{ProductID: id, Amount: *req.Amount})
	h.respondMutation(w, rec)
}

func (h *CartHandler) productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid product id %q", raw)})
		return 0, false
	}
	return id, true
}

func (h *CartHandler) respondMutation(w http.ResponseWriter, rec *notify.Recorder) {
	h.writeJSON(w, http.StatusOK, MutationResponse{Cart: h.store.Cart(), Notices: rec.Notices()})
}

func (h *CartHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}
