package api

import (
	"context"
	"net/url"
	"strconv"

	"haul/internal/domain"
)

// ListLoads fetches one page of open loads.
func (c *Client) ListLoads(ctx context.Context, page, limit int) (*domain.LoadPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var resp domain.LoadPage
	if err := c.get(ctx, "/loads", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLoad fetches a single load.
func (c *Client) GetLoad(ctx context.Context, id string) (*domain.Load, error) {
	var load domain.Load
	if err := c.get(ctx, "/loads/"+pathID(id), nil, &load); err != nil {
		return nil, err
	}
	return &load, nil
}

// ApplyRequest is the body of POST /applications.
type ApplyRequest struct {
	LoadID string `json:"loadId"`
	Role   string `json:"role"`
}

// Apply creates a PENDING application for a load.
func (c *Client) Apply(ctx context.Context, req ApplyRequest) (*domain.Application, error) {
	var app domain.Application
	if err := c.post(ctx, "/applications", req, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// MyApplications lists every application of the signed-in driver.
func (c *Client) MyApplications(ctx context.Context) ([]domain.Application, error) {
	var apps []domain.Application
	if err := c.get(ctx, "/applications/my", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}
