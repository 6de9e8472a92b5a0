// Package priceapi talks to the backend price service: one lookup endpoint
// returning the monthly prices of a room and one update endpoint replacing
// them.
package priceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/aizah-price-admin/internal/metrics"
	"github.com/iliyamo/aizah-price-admin/internal/model"
)

// Wire paths relative to the configured base URL.  "priceUpadte" is the
// spelling the backend serves and must not be corrected here.
const (
	viewPath   = "/api/priceView/{roomId}"
	updatePath = "/api/priceUpadte"
)

// APIError is returned when the backend answers with a non-2xx status.
// Message carries the optional `message` field of the error body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

type errorBody struct {
	Message string `json:"message"`
}

func newAPIError(resp *resty.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode()}
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		e.Message = body.Message
	}
	return e
}

// Client calls the price endpoints.  Requests are never retried.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

// FetchPrices reads the price record of roomID.  A nil record with a nil
// error means the backend answered without a `prices` object.
func (c *Client) FetchPrices(ctx context.Context, roomID string) (model.FetchedPrices, error) {
	start := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("roomId", roomID).
		Get(viewPath)
	if err == nil && !resp.IsSuccess() {
		err = newAPIError(resp)
	}
	metrics.ObserveUpstream(metrics.OpFetch, err, time.Since(start))
	if err != nil {
		c.logger.Warn("price lookup failed",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
		return nil, err
	}

	var out model.PriceLookup
	if body := bytes.TrimSpace(resp.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			c.logger.Warn("price lookup returned malformed body",
				zap.String("room_id", roomID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("decode price lookup: %w", err)
		}
	}
	c.logger.Debug("price lookup done",
		zap.String("room_id", roomID),
		zap.Int("months", len(out.Prices)),
	)
	return out.Prices, nil
}

// UpdatePrices replaces the price record of a room.
func (c *Client) UpdatePrices(ctx context.Context, update model.PriceUpdate) error {
	start := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(update).
		Put(updatePath)
	if err == nil && !resp.IsSuccess() {
		err = newAPIError(resp)
	}
	metrics.ObserveUpstream(metrics.OpUpdate, err, time.Since(start))
	if err != nil {
		c.logger.Warn("price update failed",
			zap.String("room_id", update.RoomID),
			zap.String("room_name", update.RoomName),
			zap.Error(err),
		)
		return err
	}
	c.logger.Info("price update accepted",
		zap.String("room_id", update.RoomID),
		zap.String("room_name", update.RoomName),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}
