package views

import (
	"context"

	"bankportal.org/internal/bank"
)

// Backend is the part of the gateway client the panels use.
type Backend interface {
	Accounts(ctx context.Context) ([]bank.Account, error)
	MiniStatement(ctx context.Context, accountNumber string) ([]bank.Transaction, error)
	Transfer(ctx context.Context, req bank.TransferRequest) (string, error)
	Notifications(ctx context.Context) ([]bank.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
	CreateApplication(ctx context.Context, req bank.CreateApplicationRequest) (bank.Application, error)
	MyApplications(ctx context.Context) ([]bank.Application, error)

	SystemStats(ctx context.Context) (bank.SystemStats, error)
	Users(ctx context.Context) ([]bank.User, error)
	EmployeeCreateUser(ctx context.Context, req bank.NewUserRequest) (string, error)
	DeactivateUser(ctx context.Context, id int64) (string, error)
	PendingApplications(ctx context.Context) ([]bank.Application, error)
	ProcessApplication(ctx context.Context, d bank.ApplicationDecision) (bank.Application, error)
	AllTransactions(ctx context.Context) ([]bank.Transaction, error)
	SearchTransactions(ctx context.Context, s bank.TransactionSearch) ([]bank.Transaction, error)

	Register(ctx context.Context, req bank.RegisterRequest) (string, error)
}
