package gateway

import (
	"context"
	"errors"
	"net/http"

	"bankportal.org/internal/bank"
)

var errNoAccessToken = errors.New("login response carried no accessToken")

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp bank.LoginResponse
	err := c.do(ctx, call{
		op:     "auth.login",
		method: http.MethodPost,
		path:   c.endpoints.Auth + "/login",
		body:   bank.LoginRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errNoAccessToken
	}
	return resp.AccessToken, nil
}

// Register creates a customer user and returns the backend's confirmation text.
func (c *Client) Register(ctx context.Context, req bank.RegisterRequest) (string, error) {
	var msg string
	err := c.do(ctx, call{
		op:     "auth.register",
		method: http.MethodPost,
		path:   c.endpoints.Auth + "/register",
		body:   req,
	}, &msg)
	return msg, err
}
