package views

import (
	"context"

	"bankportal.org/internal/bank"
)

const (
	TransferSuccess    = "Transfer completed successfully!"
	ApplicationSuccess = "Account application submitted successfully! It will be reviewed by our team."
)

func AccountOverview(b Backend) *Query[[]bank.Account] {
	return NewQuery("account_overview", "Failed to load accounts", func(ctx context.Context) ([]bank.Account, error) {
		return nonNil(b.Accounts(ctx))
	})
}

// TransactionHistory is the mini-statement of one account. Without an account
// number it never fetches.
func TransactionHistory(b Backend, accountNumber string) *Query[[]bank.Transaction] {
	return NewQuery("transaction_history", "Failed to load transactions", func(ctx context.Context) ([]bank.Transaction, error) {
		if accountNumber == "" {
			return []bank.Transaction{}, nil
		}
		return nonNil(b.MiniStatement(ctx, accountNumber))
	})
}

// TransferPanel is the fund transfer form bound to the source account.
type TransferPanel struct {
	FromAccountNumber string  `json:"fromAccountNumber"`
	MaxAmount         float64 `json:"maxAmount,omitempty"`
}

// Transfer validates form locally and only then calls the backend.
func Transfer(ctx context.Context, b Backend, from string, form bank.TransferForm, maxAmount float64) Submission {
	req, err := form.Parse(from, maxAmount)
	if err != nil {
		return Rejected(err)
	}
	return submit(ctx, action{
		name:     "transfer",
		event:    "transfer.submitted",
		fallback: "Transfer failed",
		success:  TransferSuccess,
		fields:   map[string]any{"from": req.FromAccountNumber, "to": req.ToAccountNumber, "amount": req.Amount},
	}, func(ctx context.Context) (string, error) {
		return b.Transfer(ctx, req)
	})
}

// NotificationFeed is the notification list plus its unread count.
type NotificationFeed struct {
	Items  []bank.Notification `json:"items"`
	Unread int                 `json:"unread"`
}

func Notifications(b Backend) *Query[NotificationFeed] {
	return NewQuery("notifications", "Failed to load notifications", func(ctx context.Context) (NotificationFeed, error) {
		items, err := nonNil(b.Notifications(ctx))
		if err != nil {
			return NotificationFeed{}, err
		}
		feed := NotificationFeed{Items: items}
		for _, n := range items {
			if !n.IsRead {
				feed.Unread++
			}
		}
		return feed, nil
	})
}

func MarkNotificationRead(ctx context.Context, b Backend, id string) Submission {
	if id == "" {
		return Rejected(&bank.FormError{Message: "notification id is required"})
	}
	return submit(ctx, action{name: "notification_read", fallback: "Failed to mark notification as read"},
		func(ctx context.Context) (string, error) { return "", b.MarkNotificationRead(ctx, id) })
}

func DeleteNotification(ctx context.Context, b Backend, id string) Submission {
	if id == "" {
		return Rejected(&bank.FormError{Message: "notification id is required"})
	}
	return submit(ctx, action{name: "notification_delete", fallback: "Failed to delete notification"},
		func(ctx context.Context) (string, error) { return "", b.DeleteNotification(ctx, id) })
}

// SubmitApplication files an account opening request.
func SubmitApplication(ctx context.Context, b Backend, form bank.ApplicationForm) Submission {
	req, err := form.Parse()
	if err != nil {
		return Rejected(err)
	}
	return submit(ctx, action{
		name:     "application_submit",
		event:    "application.submitted",
		fallback: "Failed to submit application",
		success:  ApplicationSuccess,
		fields:   map[string]any{"account_type": string(req.AccountType), "initial_deposit": req.InitialDeposit},
	}, func(ctx context.Context) (string, error) {
		_, err := b.CreateApplication(ctx, req)
		return "", err
	})
}

func MyApplications(b Backend) *Query[[]bank.Application] {
	return NewQuery("my_applications", "Failed to load applications", func(ctx context.Context) ([]bank.Application, error) {
		return nonNil(b.MyApplications(ctx))
	})
}

// Register signs up a new customer from the entry screen.
func Register(ctx context.Context, b Backend, form bank.RegisterForm) Submission {
	req, err := form.Parse()
	if err != nil {
		return Rejected(err)
	}
	return submit(ctx, action{
		name:     "register",
		event:    "user.registered",
		fallback: "Registration failed",
		fields:   map[string]any{"email": req.Email},
	}, func(ctx context.Context) (string, error) {
		return b.Register(ctx, req)
	})
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
