package gateway

import (
	"context"
	"net/http"
	"strconv"

	"bankportal.org/internal/bank"
)

func (c *Client) Users(ctx context.Context) ([]bank.User, error) {
	var out []bank.User
	err := c.do(ctx, call{op: "users.list", method: http.MethodGet, path: c.endpoints.Users}, &out)
	return out, err
}

func (c *Client) User(ctx context.Context, id int64) (bank.User, error) {
	var out bank.User
	err := c.do(ctx, call{
		op:     "users.get",
		method: http.MethodGet,
		path:   c.endpoints.Users + "/" + strconv.FormatInt(id, 10),
	}, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id int64, upd bank.UserUpdate) (bank.User, error) {
	var out bank.User
	err := c.do(ctx, call{
		op:     "users.update",
		method: http.MethodPut,
		path:   c.endpoints.Users + "/" + strconv.FormatInt(id, 10),
		body:   upd,
	}, &out)
	return out, err
}

// DeactivateUser returns the backend's confirmation text.
func (c *Client) DeactivateUser(ctx context.Context, id int64) (string, error) {
	var msg string
	err := c.do(ctx, call{
		op:     "users.deactivate",
		method: http.MethodPut,
		path:   c.endpoints.Users + "/" + strconv.FormatInt(id, 10) + "/deactivate",
	}, &msg)
	return msg, err
}

func (c *Client) CreateUser(ctx context.Context, req bank.RegisterRequest) (string, error) {
	var msg string
	err := c.do(ctx, call{
		op:     "users.create",
		method: http.MethodPost,
		path:   c.endpoints.Users,
		body:   req,
	}, &msg)
	return msg, err
}
