package gateway

import (
	"context"
	"net/http"

	"bankportal.org/internal/bank"
)

func (c *Client) Notifications(ctx context.Context) ([]bank.Notification, error) {
	var out []bank.Notification
	err := c.do(ctx, call{op: "notifications.list", method: http.MethodGet, path: c.endpoints.Notifications}, &out)
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op:     "notifications.read",
		method: http.MethodPut,
		path:   c.endpoints.Notifications + "/" + seg(id) + "/read",
	}, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op:     "notifications.delete",
		method: http.MethodDelete,
		path:   c.endpoints.Notifications + "/" + seg(id),
	}, nil)
}
