package purchasing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gvstock/gvstock/internal/platform/httpx"
)

// ReceiveLineRequest is one line in a receive payload.
type ReceiveLineRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0"`
}

// ReceiveRequest records a supplier delivery.
type ReceiveRequest struct {
	SupplierName string               `json:"supplier_name" validate:"required,min=2,max=120"`
	Reference    string               `json:"reference" validate:"omitempty,max=60"`
	WarehouseID  int64                `json:"warehouse_id" validate:"required,gt=0"`
	Lines        []ReceiveLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// Handler exposes purchasing over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches purchasing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/receipts", h.receive)
	r.Get("/receipts", h.list)
	r.Get("/receipts/{receiptID}", h.get)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var req ReceiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := ReceiveInput{
		SupplierName: req.SupplierName,
		Reference:    req.Reference,
		WarehouseID:  req.WarehouseID,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, ReceiveLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
		})
	}
	receipt, err := h.service.Receive(r.Context(), input)
	if err != nil {
		h.logger.Warn("receipt failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "receiptID"), 10, 64)
	receipt, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	receipts, err := h.service.List(r.Context(), limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipts)
}
