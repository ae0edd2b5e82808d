package gateway

import (
	"context"
	"net/http"

	"bankportal.org/internal/bank"
)

func (c *Client) SystemStats(ctx context.Context) (bank.SystemStats, error) {
	var out bank.SystemStats
	err := c.do(ctx, call{op: "employee.stats", method: http.MethodGet, path: c.endpoints.Employee + "/stats"}, &out)
	return out, err
}

// AllAccounts lists every account in the bank.
func (c *Client) AllAccounts(ctx context.Context) ([]bank.Account, error) {
	var out []bank.Account
	err := c.do(ctx, call{op: "employee.accounts", method: http.MethodGet, path: c.endpoints.Employee + "/accounts"}, &out)
	return out, err
}

// AllTransactions lists every transaction in the bank.
func (c *Client) AllTransactions(ctx context.Context) ([]bank.Transaction, error) {
	var env bank.Envelope[[]bank.Transaction]
	err := c.do(ctx, call{op: "employee.transactions", method: http.MethodGet, path: c.endpoints.Employee + "/transactions"}, &env)
	return env.Data, err
}

func (c *Client) SearchTransactions(ctx context.Context, s bank.TransactionSearch) ([]bank.Transaction, error) {
	var env bank.Envelope[[]bank.Transaction]
	err := c.do(ctx, call{
		op:     "employee.transactions_search",
		method: http.MethodGet,
		path:   c.endpoints.Employee + "/transactions/search",
		query:  s.Query(),
	}, &env)
	return env.Data, err
}

// EmployeeApplications lists every application regardless of status.
func (c *Client) EmployeeApplications(ctx context.Context) ([]bank.Application, error) {
	var env bank.Envelope[[]bank.Application]
	err := c.do(ctx, call{op: "employee.applications", method: http.MethodGet, path: c.endpoints.Employee + "/applications"}, &env)
	return env.Data, err
}

// EmployeeCreateUser creates a customer on the employee's behalf.
func (c *Client) EmployeeCreateUser(ctx context.Context, req bank.NewUserRequest) (string, error) {
	var msg string
	err := c.do(ctx, call{
		op:     "employee.users_create",
		method: http.MethodPost,
		path:   c.endpoints.Employee + "/users",
		body:   req,
	}, &msg)
	return msg, err
}
