// Package bank mirrors the banking backend's wire shapes. The portal does not
// interpret these beyond display and form preparation; timestamps stay strings.
package bank

import (
	"net/url"
	"strings"
)

type AccountType string

const (
	AccountSavings AccountType = "SAVINGS"
	AccountCurrent AccountType = "CURRENT"
)

type TransactionType string

const (
	TxDeposit    TransactionType = "DEPOSIT"
	TxWithdrawal TransactionType = "WITHDRAWAL"
	TxTransfer   TransactionType = "TRANSFER"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

type Account struct {
	ID            int64       `json:"id"`
	AccountNumber string      `json:"accountNumber"`
	AccountType   AccountType `json:"accountType"`
	Balance       float64     `json:"balance"`
	IsActive      bool        `json:"isActive"`
	UserID        int64       `json:"userId,omitempty"`
	CreatedAt     string      `json:"createdAt,omitempty"`
	UpdatedAt     string      `json:"updatedAt,omitempty"`
}

// AccountUpdate is the body of PUT {accounts}/{accountNumber}.
type AccountUpdate struct {
	AccountType AccountType `json:"accountType,omitempty"`
	IsActive    *bool       `json:"isActive,omitempty"`
}

type Transaction struct {
	ID              int64           `json:"id"`
	Amount          float64         `json:"amount"`
	TransactionType TransactionType `json:"transactionType"`
	FromAccount     string          `json:"fromAccount,omitempty"`
	ToAccount       string          `json:"toAccount,omitempty"`
	Timestamp       string          `json:"timestamp"`
	AccountID       int64           `json:"accountId,omitempty"`
}

type TransferRequest struct {
	FromAccountNumber string  `json:"fromAccountNumber"`
	ToAccountNumber   string  `json:"toAccountNumber"`
	Amount            float64 `json:"amount"`
}

// CashRequest is the body of deposit and withdraw calls.
type CashRequest struct {
	AccountNumber string  `json:"accountNumber"`
	Amount        float64 `json:"amount"`
}

type User struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	Active   *bool  `json:"active,omitempty"`
}

type UserUpdate struct {
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type Notification struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"isRead"`
}

type Application struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"userId,omitempty"`
	UserEmail      string            `json:"userEmail,omitempty"`
	UserName       string            `json:"userName,omitempty"`
	AccountType    AccountType       `json:"accountType"`
	InitialDeposit float64           `json:"initialDeposit"`
	Purpose        string            `json:"purpose,omitempty"`
	Status         ApplicationStatus `json:"status"`
	EmployeeNotes  string            `json:"employeeNotes,omitempty"`
	ApprovedBy     string            `json:"approvedBy,omitempty"`
	CreatedAt      string            `json:"createdAt,omitempty"`
	UpdatedAt      string            `json:"updatedAt,omitempty"`
}

type CreateApplicationRequest struct {
	AccountType    AccountType `json:"accountType"`
	InitialDeposit float64     `json:"initialDeposit"`
	Purpose        string      `json:"purpose"`
}

type ApplicationDecision struct {
	ApplicationID int64             `json:"applicationId"`
	Decision      ApplicationStatus `json:"decision"`
	Notes         string            `json:"notes,omitempty"`
}

type SystemStats struct {
	TotalUsers        int64   `json:"totalUsers"`
	TotalAccounts     int64   `json:"totalAccounts"`
	TotalTransactions int64   `json:"totalTransactions"`
	TotalBalance      float64 `json:"totalBalance"`
	ActiveUsers       *int64  `json:"activeUsers,omitempty"`
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// NewUserRequest is the employee-side user creation body.
type NewUserRequest struct {
	FullName    string      `json:"fullName"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Phone       string      `json:"phone"`
	AccountType AccountType `json:"accountType,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// Envelope wraps employee endpoints that answer {success, data, message}.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// TransactionSearch filters the employee transaction search.
type TransactionSearch struct {
	AccountNumber   string
	TransactionType TransactionType
	StartDate       string
	EndDate         string
}

// IsEmpty reports whether no filter is set.
func (s TransactionSearch) IsEmpty() bool {
	return s.AccountNumber == "" && s.TransactionType == "" && s.StartDate == "" && s.EndDate == ""
}

// Query encodes the non-empty filters.
func (s TransactionSearch) Query() url.Values {
	q := url.Values{}
	if s.AccountNumber != "" {
		q.Set("accountNumber", s.AccountNumber)
	}
	if s.TransactionType != "" {
		q.Set("transactionType", strings.ToUpper(string(s.TransactionType)))
	}
	if s.StartDate != "" {
		q.Set("startDate", s.StartDate)
	}
	if s.EndDate != "" {
		q.Set("endDate", s.EndDate)
	}
	return q
}
