package settlement

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gvstock/gvstock/internal/fulfillment"
	"github.com/gvstock/gvstock/internal/platform/httpx"
)

// Handler exposes payments and combined settlement over HTTP.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	coordinator *Coordinator
	validate    *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, coordinator *Coordinator) *Handler {
	return &Handler{logger: logger, service: service, coordinator: coordinator, validate: validator.New()}
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	orderID := orderIDParam(r)
	if orderID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "order id required")
		return
	}
	var req PaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.RecordPayment(r.Context(), PaymentInput{
		OrderID: orderID,
		Amount:  req.Amount,
		Method:  req.Method,
		Notes:   req.Notes,
	})
	if err != nil {
		h.logger.Warn("payment failed", slog.Any("error", err), slog.Int64("order_id", orderID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	orderID := orderIDParam(r)
	if orderID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "order id required")
		return
	}
	var req SettleRequestBody
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	items := make([]fulfillment.ItemUpdate, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, fulfillment.ItemUpdate{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	outcome := h.coordinator.Settle(r.Context(), SettleRequest{
		OrderID:      orderID,
		Amount:       req.Amount,
		Method:       req.Method,
		Notes:        req.Notes,
		DeliveryMode: fulfillment.DeliveryMode(req.DeliveryMode),
		ItemUpdates:  items,
		PaymentOnly:  req.PaymentOnly,
		DeliveryOnly: req.DeliveryOnly,
	})

	// Every sub-operation that ran failed: answer with the typed error.
	// Otherwise the envelope carries per-operation outcomes, failures included.
	if !outcome.NoOp() && !outcome.Succeeded() && outcome.Payment == nil && outcome.Delivery == nil {
		err := outcome.PaymentErr
		if err == nil {
			err = outcome.DeliveryErr
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newSettleResponse(outcome))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	orderID := orderIDParam(r)
	payments, err := h.service.ListPayments(r.Context(), orderID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, newPaymentResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getTotals(w http.ResponseWriter, r *http.Request) {
	orderID := orderIDParam(r)
	totals, err := h.service.GetOrderTotals(r.Context(), orderID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, TotalsResponse{
		OrderID:         totals.ID,
		FinalTotal:      totals.FinalTotal,
		PaidAmount:      totals.PaidAmount,
		RemainingAmount: totals.RemainingAmount,
		PaymentStatus:   string(totals.PaymentStatus),
	})
}

func orderIDParam(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	return id
}
