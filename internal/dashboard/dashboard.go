// Package dashboard composes the user and employee pages out of independent panels.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"bankportal.org/internal/bank"
	"bankportal.org/internal/views"
)

// ErrUnknownTab is returned for a tab the shell does not have.
var ErrUnknownTab = errors.New("unknown tab")

const NoAccountsMessage = "No accounts found."

// ErrNoAccounts is returned when the customer holds no account to transfer from.
var ErrNoAccounts = errors.New(NoAccountsMessage)

// Features hides optional panels and tabs.
type Features struct {
	Notifications  bool
	FundTransfer   bool
	UserManagement bool
	SystemStats    bool
}

// AllFeatures enables everything.
func AllFeatures() Features {
	return Features{Notifications: true, FundTransfer: true, UserManagement: true, SystemStats: true}
}

// mountAll runs every panel concurrently. Panels record their own failures, so
// the group only stops early when ctx ends.
func mountAll(ctx context.Context, runs ...func(context.Context)) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, run := range runs {
		g.Go(func() error {
			run(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func normalizeTab(tab string) string {
	return strings.ToLower(strings.TrimSpace(tab))
}

// UserTab is one tab of the customer dashboard.
type UserTab string

const (
	TabDashboard    UserTab = "dashboard"
	TabApply        UserTab = "apply"
	TabApplications UserTab = "applications"
)

// UserPage is the rendered customer dashboard. Exactly one tab body is set.
type UserPage struct {
	ActiveTab UserTab   `json:"activeTab"`
	Tabs      []UserTab `json:"tabs"`

	Accounts      *views.Result[[]bank.Account]         `json:"accounts,omitempty"`
	Message       string                                `json:"message,omitempty"`
	Overview      *views.Result[[]bank.Account]         `json:"overview,omitempty"`
	Transfer      *views.TransferPanel                  `json:"transfer,omitempty"`
	History       *views.Result[[]bank.Transaction]     `json:"history,omitempty"`
	Notifications *views.Result[views.NotificationFeed] `json:"notifications,omitempty"`

	ApplicationForm *bank.ApplicationForm             `json:"applicationForm,omitempty"`
	Applications    *views.Result[[]bank.Application] `json:"applications,omitempty"`
}

// UserShell renders the customer dashboard.
type UserShell struct {
	backend   views.Backend
	features  Features
	maxAmount float64
}

func NewUserShell(b views.Backend, f Features, maxTransfer float64) *UserShell {
	return &UserShell{backend: b, features: f, maxAmount: maxTransfer}
}

// Tabs lists the tabs in display order.
func (s *UserShell) Tabs() []UserTab {
	return []UserTab{TabDashboard, TabApply, TabApplications}
}

// Render mounts the panels of tab. An empty tab is the dashboard.
func (s *UserShell) Render(ctx context.Context, tab string) (UserPage, error) {
	active := UserTab(normalizeTab(tab))
	if active == "" {
		active = TabDashboard
	}
	page := UserPage{ActiveTab: active, Tabs: s.Tabs()}

	switch active {
	case TabDashboard:
		return page, s.renderDashboard(ctx, &page)
	case TabApply:
		form := bank.DefaultApplicationForm()
		page.ApplicationForm = &form
		return page, nil
	case TabApplications:
		q := views.MyApplications(s.backend)
		res := q.Run(ctx)
		page.Applications = &res
		return page, ctx.Err()
	default:
		return UserPage{}, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
}

func (s *UserShell) renderDashboard(ctx context.Context, page *UserPage) error {
	accounts := views.AccountOverview(s.backend).Run(ctx)
	page.Accounts = &accounts
	if err := ctx.Err(); err != nil {
		return err
	}

	var runs []func(context.Context)
	if s.features.Notifications {
		q := views.Notifications(s.backend)
		runs = append(runs, func(ctx context.Context) {
			res := q.Run(ctx)
			page.Notifications = &res
		})
	}

	switch {
	case accounts.Error != "":
	case len(accounts.Data) == 0:
		page.Message = NoAccountsMessage
	default:
		primary := accounts.Data[0].AccountNumber
		if s.features.FundTransfer {
			page.Transfer = &views.TransferPanel{FromAccountNumber: primary, MaxAmount: s.maxAmount}
		}
		overview := views.AccountOverview(s.backend)
		history := views.TransactionHistory(s.backend, primary)
		runs = append(runs,
			func(ctx context.Context) {
				res := overview.Run(ctx)
				page.Overview = &res
			},
			func(ctx context.Context) {
				res := history.Run(ctx)
				page.History = &res
			},
		)
	}
	return mountAll(ctx, runs...)
}

// PrimaryAccount returns the account transfers are made from. Backend
// failures come back unchanged so callers keep their status.
func (s *UserShell) PrimaryAccount(ctx context.Context) (string, error) {
	accounts, err := s.backend.Accounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", ErrNoAccounts
	}
	return accounts[0].AccountNumber, nil
}

// EmployeeTab is one tab of the back-office dashboard.
type EmployeeTab string

const (
	TabOverview             EmployeeTab = "overview"
	TabUsers                EmployeeTab = "users"
	TabEmployeeApplications EmployeeTab = "applications"
	TabTransactions         EmployeeTab = "transactions"
)

// EmployeePage is the rendered back-office dashboard.
type EmployeePage struct {
	ActiveTab EmployeeTab   `json:"activeTab"`
	Tabs      []EmployeeTab `json:"tabs"`

	Stats        *views.Result[bank.SystemStats]      `json:"stats,omitempty"`
	Users        *views.Result[[]bank.User]           `json:"users,omitempty"`
	Applications *views.Result[[]bank.Application]    `json:"applications,omitempty"`
	Transactions *views.Result[views.TransactionPage] `json:"transactions,omitempty"`
}

// EmployeeShell renders the back-office dashboard.
type EmployeeShell struct {
	backend  views.Backend
	features Features
	perPage  int
}

func NewEmployeeShell(b views.Backend, f Features, itemsPerPage int) *EmployeeShell {
	return &EmployeeShell{backend: b, features: f, perPage: itemsPerPage}
}

// Tabs lists the enabled tabs in display order.
func (s *EmployeeShell) Tabs() []EmployeeTab {
	tabs := []EmployeeTab{TabOverview}
	if s.features.UserManagement {
		tabs = append(tabs, TabUsers)
	}
	return append(tabs, TabEmployeeApplications, TabTransactions)
}

func (s *EmployeeShell) enabled(t EmployeeTab) bool {
	for _, have := range s.Tabs() {
		if have == t {
			return true
		}
	}
	return false
}

// TransactionQuery selects the transactions tab contents.
type TransactionQuery struct {
	Search bank.TransactionSearch
	Page   int
}

// Render mounts the panels of tab. Unknown or disabled tabs fall back to the overview.
func (s *EmployeeShell) Render(ctx context.Context, tab string, tq TransactionQuery) (EmployeePage, error) {
	active := EmployeeTab(normalizeTab(tab))
	if !s.enabled(active) {
		active = TabOverview
	}
	page := EmployeePage{ActiveTab: active, Tabs: s.Tabs()}

	var runs []func(context.Context)
	switch active {
	case TabOverview:
		if s.features.SystemStats {
			q := views.SystemOverview(s.backend)
			runs = append(runs, func(ctx context.Context) {
				res := q.Run(ctx)
				page.Stats = &res
			})
		}
	case TabUsers:
		q := views.UserManagement(s.backend)
		runs = append(runs, func(ctx context.Context) {
			res := q.Run(ctx)
			page.Users = &res
		})
	case TabEmployeeApplications:
		q := views.ApplicationManagement(s.backend)
		runs = append(runs, func(ctx context.Context) {
			res := q.Run(ctx)
			page.Applications = &res
		})
	case TabTransactions:
		q := views.TransactionManagement(s.backend, tq.Search, tq.Page, s.perPage)
		runs = append(runs, func(ctx context.Context) {
			res := q.Run(ctx)
			page.Transactions = &res
		})
	}
	if err := mountAll(ctx, runs...); err != nil {
		return EmployeePage{}, err
	}
	return page, nil
}
