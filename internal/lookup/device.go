package lookup

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"iptrack/internal/domain"
	apperrors "iptrack/pkg/errors"
	"iptrack/pkg/logger"
)

// DeviceClient detects device type and brand with the userstack API.
type DeviceClient struct {
	baseURL   string
	accessKey string
	client    httpClient
	breaker   *breaker[*domain.Device]
}

func NewDeviceClient(baseURL, accessKey string, timeout time.Duration, log logger.Logger) *DeviceClient {
	return &DeviceClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		client:    newHTTPClient(timeout),
		breaker:   newBreaker[*domain.Device]("userstack", log),
	}
}

type userstackResponse struct {
	// Success is only present (and false) on errors.
	Success *bool `json:"success"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
	Device struct {
		Type  string `json:"type"`
		Brand string `json:"brand"`
		Name  string `json:"name"`
	} `json:"device"`
}

// Detect classifies a User-Agent string.
func (d *DeviceClient) Detect(ctx context.Context, userAgent string) (*domain.Device, error) {
	q := url.Values{}
	q.Set("access_key", d.accessKey)
	q.Set("ua", userAgent)
	endpoint := d.baseURL + "/detect?" + q.Encode()

	return d.breaker.call(func() (*domain.Device, error) {
		var resp userstackResponse
		if err := d.client.getJSON(ctx, endpoint, &resp, nil); err != nil {
			return nil, err
		}
		if (resp.Success != nil && !*resp.Success) || resp.Error != nil {
			detail := "unknown error"
			if resp.Error != nil {
				detail = fmt.Sprintf("%d %s", resp.Error.Code, resp.Error.Type)
			}
			return nil, apperrors.Wrap(apperrors.ErrLookupFailed, "userstack: "+detail)
		}
		return &domain.Device{Type: resp.Device.Type, Brand: resp.Device.Brand}, nil
	})
}
