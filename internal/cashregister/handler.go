package cashregister

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gvstock/gvstock/internal/platform/httpx"
)

// OpenRequest opens a register.
type OpenRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=60"`
	OpeningAmount float64 `json:"opening_amount" validate:"gte=0"`
}

// MovementRequest posts a deposit or withdrawal.
type MovementRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"omitempty,max=255"`
}

// Handler exposes cash registers over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches register routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.open)
	r.Get("/open", h.findOpen)
	r.Post("/{registerID}/close", h.close)
	r.Post("/{registerID}/deposits", h.deposit)
	r.Post("/{registerID}/withdrawals", h.withdraw)
	r.Get("/{registerID}/transactions", h.listTransactions)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	register, err := h.service.Open(r.Context(), req.Name, req.OpeningAmount, 0)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, register)
}

func (h *Handler) findOpen(w http.ResponseWriter, r *http.Request) {
	register, err := h.service.FindOpen(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoOpenRegister) {
			httpx.Problem(w, http.StatusNotFound, "No Open Register", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, register)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Close(r.Context(), registerIDParam(r), 0); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, TypeDeposit)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, TypeWithdrawal)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request, txnType TransactionType) {
	var req MovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var (
		txn Transaction
		err error
	)
	if txnType == TypeDeposit {
		txn, err = h.service.Deposit(r.Context(), registerIDParam(r), req.Amount, req.Description, 0)
	} else {
		txn, err = h.service.Withdraw(r.Context(), registerIDParam(r), req.Amount, req.Description, 0)
	}
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			httpx.Problem(w, http.StatusConflict, "Insufficient Funds", err.Error())
			return
		}
		h.logger.Warn("register movement failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, txn)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txns, err := h.service.ListTransactions(r.Context(), registerIDParam(r), limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txns)
}

func registerIDParam(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "registerID"), 10, 64)
	return id
}
