package cashregister

import (
	"errors"
	"time"
)

// RegisterStatus enumerates register states.
type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "open"
	RegisterClosed RegisterStatus = "closed"
)

// TransactionType enumerates journal entry types.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
)

// Register is one cash register.
type Register struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	CurrentAmount float64        `json:"current_amount"`
	Status        RegisterStatus `json:"status"`
	OpenedAt      time.Time      `json:"opened_at"`
	ClosedAt      *time.Time     `json:"closed_at,omitempty"`
}

// Transaction is one journal row. The journal is append-only; the register's
// current_amount is a cache over it.
type Transaction struct {
	ID          int64           `json:"id"`
	RegisterID  int64           `json:"register_id"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ErrNoOpenRegister indicates no register is currently open.
var ErrNoOpenRegister = errors.New("cashregister: no open register")

// ErrInsufficientFunds indicates a withdrawal exceeding the register balance.
var ErrInsufficientFunds = errors.New("cashregister: insufficient funds")
