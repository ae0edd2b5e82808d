package views

import (
	"context"
	"strconv"

	"bankportal.org/internal/bank"
)

func SystemOverview(b Backend) *Query[bank.SystemStats] {
	return NewQuery("system_overview", "Failed to load system stats", b.SystemStats)
}

func UserManagement(b Backend) *Query[[]bank.User] {
	return NewQuery("user_management", "Failed to load users", func(ctx context.Context) ([]bank.User, error) {
		return nonNil(b.Users(ctx))
	})
}

// CreateUser opens a customer user on an employee's behalf.
func CreateUser(ctx context.Context, b Backend, form bank.NewUserForm) Submission {
	req, err := form.Parse()
	if err != nil {
		return Rejected(err)
	}
	return submit(ctx, action{
		name:     "user_create",
		event:    "user.created",
		fallback: "Failed to create user",
		fields:   map[string]any{"email": req.Email, "account_type": string(req.AccountType)},
	}, func(ctx context.Context) (string, error) {
		return b.EmployeeCreateUser(ctx, req)
	})
}

func DeactivateUser(ctx context.Context, b Backend, id int64) Submission {
	if id <= 0 {
		return Rejected(&bank.FormError{Message: "user id must be positive"})
	}
	return submit(ctx, action{
		name:     "user_deactivate",
		event:    "user.deactivated",
		fallback: "Failed to deactivate user",
		fields:   map[string]any{"user_id": id},
	}, func(ctx context.Context) (string, error) {
		return b.DeactivateUser(ctx, id)
	})
}

// ApplicationManagement lists applications awaiting a decision.
func ApplicationManagement(b Backend) *Query[[]bank.Application] {
	return NewQuery("application_management", "Failed to load applications", func(ctx context.Context) ([]bank.Application, error) {
		return nonNil(b.PendingApplications(ctx))
	})
}

func ProcessApplication(ctx context.Context, b Backend, form bank.DecisionForm) Submission {
	d, err := form.Parse()
	if err != nil {
		return Rejected(err)
	}
	return submit(ctx, action{
		name:     "application_process",
		event:    "application.processed",
		fallback: "Failed to process application",
		fields:   map[string]any{"application_id": d.ApplicationID, "decision": string(d.Decision)},
	}, func(ctx context.Context) (string, error) {
		app, err := b.ProcessApplication(ctx, d)
		if err != nil {
			return "", err
		}
		return "Application " + strconv.FormatInt(app.ID, 10) + " " + string(app.Status), nil
	})
}

// TransactionPage is one page of the employee transaction list.
type TransactionPage struct {
	Items   []bank.Transaction     `json:"items"`
	Page    int                    `json:"page"`
	Pages   int                    `json:"pages"`
	PerPage int                    `json:"perPage"`
	Total   int                    `json:"total"`
	Search  bank.TransactionSearch `json:"-"`
}

// TransactionManagement lists every transaction, or the search hits when any
// filter is set, paged by perPage. Pages are 1-based and clamped.
func TransactionManagement(b Backend, search bank.TransactionSearch, page, perPage int) *Query[TransactionPage] {
	return NewQuery("transaction_management", "Failed to load transactions", func(ctx context.Context) (TransactionPage, error) {
		var (
			all []bank.Transaction
			err error
		)
		if search.IsEmpty() {
			all, err = b.AllTransactions(ctx)
		} else {
			all, err = b.SearchTransactions(ctx, search)
		}
		if err != nil {
			return TransactionPage{}, err
		}
		return Paginate(all, page, perPage, search), nil
	})
}

// Paginate cuts items into the requested page.
func Paginate(items []bank.Transaction, page, perPage int, search bank.TransactionSearch) TransactionPage {
	if perPage <= 0 {
		perPage = 10
	}
	total := len(items)
	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * perPage
	end := min(start+perPage, total)
	out := make([]bank.Transaction, 0, end-start)
	out = append(out, items[start:end]...)
	return TransactionPage{Items: out, Page: page, Pages: pages, PerPage: perPage, Total: total, Search: search}
}
