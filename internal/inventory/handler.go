package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/gvstock/gvstock/internal/platform/httpx"
)

// Handler exposes the stock ledger over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) stockIn(w http.ResponseWriter, r *http.Request) {
	var req StockInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.ApplyStockIn(r.Context(), StockInInput{
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Reason:      req.Reason,
		Reference:   req.Reference,
	})
	if err != nil {
		h.logger.Warn("stock in failed", slog.Any("error", err), slog.Int64("product_id", req.ProductID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newMovementResponse(result))
}

func (h *Handler) stockOut(w http.ResponseWriter, r *http.Request) {
	var req StockOutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.ApplyStockOut(r.Context(), StockOutInput{
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		Reference:   req.Reference,
	})
	if err != nil {
		h.logger.Warn("stock out failed", slog.Any("error", err), slog.Int64("product_id", req.ProductID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newMovementResponse(result))
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	warehouseID := parseID(r.URL.Query().Get("warehouse_id"))
	productID := parseID(r.URL.Query().Get("product_id"))
	stock, err := h.service.GetStock(r.Context(), warehouseID, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, StockResponse{
		WarehouseID: stock.WarehouseID,
		ProductID:   stock.ProductID,
		Quantity:    stock.Quantity,
		UnitPrice:   stock.UnitPrice,
		TotalValue:  stock.TotalValue,
	})
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	filter := MovementFilter{
		WarehouseID: parseID(r.URL.Query().Get("warehouse_id")),
		ProductID:   parseID(r.URL.Query().Get("product_id")),
		Type:        MovementType(r.URL.Query().Get("type")),
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}
	movements, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func parseID(raw string) int64 {
	id, _ := strconv.ParseInt(raw, 10, 64)
	return id
}
