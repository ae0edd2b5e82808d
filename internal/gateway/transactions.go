package gateway

import (
	"context"
	"net/http"

	"bankportal.org/internal/bank"
)

func (c *Client) Transactions(ctx context.Context, accountNumber string) ([]bank.Transaction, error) {
	var out []bank.Transaction
	err := c.do(ctx, call{
		op:     "transactions.list",
		method: http.MethodGet,
		path:   c.endpoints.Transactions + "/" + seg(accountNumber),
	}, &out)
	return out, err
}

// MiniStatement returns the most recent transactions of an account.
func (c *Client) MiniStatement(ctx context.Context, accountNumber string) ([]bank.Transaction, error) {
	var out []bank.Transaction
	err := c.do(ctx, call{
		op:     "transactions.mini_statement",
		method: http.MethodGet,
		path:   c.endpoints.Transactions + "/mini-statement/" + seg(accountNumber),
	}, &out)
	return out, err
}

// Transfer moves funds; the backend confirms with plain text.
func (c *Client) Transfer(ctx context.Context, req bank.TransferRequest) (string, error) {
	var msg string
	err := c.do(ctx, call{
		op:     "transactions.transfer",
		method: http.MethodPost,
		path:   c.endpoints.Transactions + "/transfer",
		body:   req,
	}, &msg)
	return msg, err
}

func (c *Client) Deposit(ctx context.Context, req bank.CashRequest) (bank.Transaction, error) {
	var out bank.Transaction
	err := c.do(ctx, call{
		op:     "transactions.deposit",
		method: http.MethodPost,
		path:   c.endpoints.Transactions + "/deposit",
		body:   req,
	}, &out)
	return out, err
}

func (c *Client) Withdraw(ctx context.Context, req bank.CashRequest) (bank.Transaction, error) {
	var out bank.Transaction
	err := c.do(ctx, call{
		op:     "transactions.withdraw",
		method: http.MethodPost,
		path:   c.endpoints.Transactions + "/withdraw",
		body:   req,
	}, &out)
	return out, err
}
