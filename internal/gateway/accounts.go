package gateway

import (
	"context"
	"net/http"

	"bankportal.org/internal/bank"
)

// Accounts lists the caller's accounts.
func (c *Client) Accounts(ctx context.Context) ([]bank.Account, error) {
	var out []bank.Account
	err := c.do(ctx, call{op: "accounts.list", method: http.MethodGet, path: c.endpoints.Accounts}, &out)
	return out, err
}

func (c *Client) Account(ctx context.Context, accountNumber string) (bank.Account, error) {
	var out bank.Account
	err := c.do(ctx, call{
		op:     "accounts.get",
		method: http.MethodGet,
		path:   c.endpoints.Accounts + "/" + seg(accountNumber),
	}, &out)
	return out, err
}

func (c *Client) CreateAccount(ctx context.Context, accountType bank.AccountType) (bank.Account, error) {
	var out bank.Account
	err := c.do(ctx, call{
		op:     "accounts.create",
		method: http.MethodPost,
		path:   c.endpoints.Accounts,
		body:   map[string]any{"accountType": accountType},
	}, &out)
	return out, err
}

func (c *Client) UpdateAccount(ctx context.Context, accountNumber string, upd bank.AccountUpdate) (bank.Account, error) {
	var out bank.Account
	err := c.do(ctx, call{
		op:     "accounts.update",
		method: http.MethodPut,
		path:   c.endpoints.Accounts + "/" + seg(accountNumber),
		body:   upd,
	}, &out)
	return out, err
}
