package bank

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"bankportal.org/internal/validate"
)

// Messages shown for local form rejections.
const (
	MsgFillAllFields = "Please fill in all fields"
	MsgInvalidAmount = "Please enter a valid amount"
)

// FormError is a local rejection carrying the exact message to show.
type FormError struct {
	Message string
	Cause   error
}

func (e *FormError) Error() string { return e.Message }

func (e *FormError) Unwrap() []error {
	if e.Cause == nil {
		return []error{validate.ErrInvalidInput}
	}
	return []error{validate.ErrInvalidInput, e.Cause}
}

func formError(msg string, cause error) error {
	return &FormError{Message: msg, Cause: cause}
}

// TransferForm is the raw fund transfer input. Amount stays a string until Parse.
type TransferForm struct {
	ToAccountNumber string `json:"toAccountNumber"`
	Amount          string `json:"amount"`
}

// Parse validates the form for a transfer out of from. maxAmount <= 0 disables the cap.
func (f TransferForm) Parse(from string, maxAmount float64) (TransferRequest, error) {
	if strings.TrimSpace(from) == "" {
		return TransferRequest{}, formError(MsgFillAllFields, nil)
	}
	to, amount, err := f.check(maxAmount)
	if err != nil {
		return TransferRequest{}, err
	}
	return TransferRequest{
		FromAccountNumber: from,
		ToAccountNumber:   to,
		Amount:            amount,
	}, nil
}

// Check validates destination and amount without a source account.
func (f TransferForm) Check(maxAmount float64) error {
	_, _, err := f.check(maxAmount)
	return err
}

func (f TransferForm) check(maxAmount float64) (string, float64, error) {
	to := strings.TrimSpace(f.ToAccountNumber)
	raw := strings.TrimSpace(f.Amount)
	if to == "" || raw == "" {
		return "", 0, formError(MsgFillAllFields, nil)
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return "", 0, formError(MsgInvalidAmount, err)
	}
	if maxAmount > 0 && amount > maxAmount {
		return "", 0, formError(fmt.Sprintf("Amount cannot exceed %s", strconv.FormatFloat(maxAmount, 'f', -1, 64)), nil)
	}
	return to, amount, nil
}

// ApplicationForm is the account opening request.
type ApplicationForm struct {
	AccountType    AccountType `json:"accountType" validate:"required,oneof=SAVINGS CURRENT"`
	InitialDeposit float64     `json:"initialDeposit" validate:"gte=0"`
	Purpose        string      `json:"purpose" validate:"max=500"`
}

// DefaultApplicationForm is what a freshly opened form shows.
func DefaultApplicationForm() ApplicationForm {
	return ApplicationForm{AccountType: AccountSavings}
}

func (f ApplicationForm) Parse() (CreateApplicationRequest, error) {
	f.AccountType = AccountType(strings.ToUpper(strings.TrimSpace(string(f.AccountType))))
	if err := validate.Struct(f); err != nil {
		return CreateApplicationRequest{}, err
	}
	return CreateApplicationRequest{
		AccountType:    f.AccountType,
		InitialDeposit: f.InitialDeposit,
		Purpose:        strings.TrimSpace(f.Purpose),
	}, nil
}

// DecisionForm approves or rejects a pending application.
type DecisionForm struct {
	ApplicationID int64             `json:"applicationId" validate:"gt=0"`
	Decision      ApplicationStatus `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Notes         string            `json:"notes" validate:"max=1000"`
}

func (f DecisionForm) Parse() (ApplicationDecision, error) {
	f.Decision = ApplicationStatus(strings.ToUpper(strings.TrimSpace(string(f.Decision))))
	if err := validate.Struct(f); err != nil {
		return ApplicationDecision{}, err
	}
	return ApplicationDecision{ApplicationID: f.ApplicationID, Decision: f.Decision, Notes: strings.TrimSpace(f.Notes)}, nil
}

// NewUserForm is filled by employees creating customer users.
type NewUserForm struct {
	FullName    string      `json:"fullName" validate:"required"`
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=6"`
	Phone       string      `json:"phone" validate:"required"`
	AccountType AccountType `json:"accountType" validate:"omitempty,oneof=SAVINGS CURRENT"`
}

func (f NewUserForm) Parse() (NewUserRequest, error) {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.AccountType = AccountType(strings.ToUpper(strings.TrimSpace(string(f.AccountType))))
	if err := validate.Struct(f); err != nil {
		return NewUserRequest{}, err
	}
	return NewUserRequest(f), nil
}

// RegisterForm is the self-service sign-up form on the entry screen.
type RegisterForm struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required"`
}

func (f RegisterForm) Parse() (RegisterRequest, error) {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	if err := validate.Struct(f); err != nil {
		return RegisterRequest{}, err
	}
	return RegisterRequest(f), nil
}

// SearchForm is the employee transaction search. Dates are YYYY-MM-DD.
type SearchForm struct {
	AccountNumber   string `json:"accountNumber"`
	TransactionType string `json:"transactionType" validate:"omitempty,oneof=DEPOSIT WITHDRAWAL TRANSFER"`
	StartDate       string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate         string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

var errDateOrder = errors.New("startDate must not be after endDate")

func (f SearchForm) Parse() (TransactionSearch, error) {
	f.AccountNumber = strings.TrimSpace(f.AccountNumber)
	f.TransactionType = strings.ToUpper(strings.TrimSpace(f.TransactionType))
	f.StartDate = strings.TrimSpace(f.StartDate)
	f.EndDate = strings.TrimSpace(f.EndDate)
	if err := validate.Struct(f); err != nil {
		return TransactionSearch{}, err
	}
	if f.StartDate != "" && f.EndDate != "" {
		start, _ := time.Parse(time.DateOnly, f.StartDate)
		end, _ := time.Parse(time.DateOnly, f.EndDate)
		if start.After(end) {
			return TransactionSearch{}, formError(errDateOrder.Error(), errDateOrder)
		}
	}
	return TransactionSearch{
		AccountNumber:   f.AccountNumber,
		TransactionType: TransactionType(f.TransactionType),
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
	}, nil
}
