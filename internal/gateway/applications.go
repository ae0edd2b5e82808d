package gateway

import (
	"context"
	"net/http"
	"strconv"

	"bankportal.org/internal/bank"
)

func (c *Client) CreateApplication(ctx context.Context, req bank.CreateApplicationRequest) (bank.Application, error) {
	var out bank.Application
	err := c.do(ctx, call{op: "applications.create", method: http.MethodPost, path: c.endpoints.Applications, body: req}, &out)
	return out, err
}

func (c *Client) Applications(ctx context.Context) ([]bank.Application, error) {
	var out []bank.Application
	err := c.do(ctx, call{op: "applications.list", method: http.MethodGet, path: c.endpoints.Applications}, &out)
	return out, err
}

func (c *Client) PendingApplications(ctx context.Context) ([]bank.Application, error) {
	var out []bank.Application
	err := c.do(ctx, call{op: "applications.pending", method: http.MethodGet, path: c.endpoints.Applications + "/pending"}, &out)
	return out, err
}

func (c *Client) MyApplications(ctx context.Context) ([]bank.Application, error) {
	var out []bank.Application
	err := c.do(ctx, call{op: "applications.mine", method: http.MethodGet, path: c.endpoints.Applications + "/my-applications"}, &out)
	return out, err
}

func (c *Client) ProcessApplication(ctx context.Context, d bank.ApplicationDecision) (bank.Application, error) {
	var out bank.Application
	err := c.do(ctx, call{op: "applications.process", method: http.MethodPost, path: c.endpoints.Applications + "/process", body: d}, &out)
	return out, err
}

func (c *Client) Application(ctx context.Context, id int64) (bank.Application, error) {
	var out bank.Application
	err := c.do(ctx, call{
		op:     "applications.get",
		method: http.MethodGet,
		path:   c.endpoints.Applications + "/" + strconv.FormatInt(id, 10),
	}, &out)
	return out, err
}
