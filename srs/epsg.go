package srs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// DefaultEPSGURL is the spatialreference.org ESRI WKT endpoint.
const DefaultEPSGURL = "http://spatialreference.org/ref/epsg/%d/esriwkt/"

// EPSGClient fetches projection definitions by EPSG code.
type EPSGClient struct {
	HTTP *http.Client
	// URLTemplate takes the code as its only verb.
	URLTemplate string
	Logger      *zap.Logger
}

// NewEPSGClient returns a client for template, routed through proxy when
// it is not empty.
func NewEPSGClient(template, proxy string, logger *zap.Logger) (*EPSGClient, error) {
	if template == "" {
		template = DefaultEPSGURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := &http.Client{}
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("[url.Parse] proxy in pkg [srs] encountered: %w", err)
		}
		hc.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	}

	return &EPSGClient{HTTP: hc, URLTemplate: template, Logger: logger}, nil
}

// FetchWKT returns the ESRI WKT of an EPSG code.
func (c *EPSGClient) FetchWKT(ctx context.Context, code int) (string, error) {
	target := fmt.Sprintf(c.URLTemplate, code)
	c.Logger.Debug("fetching epsg definition", zap.Int("epsg", code), zap.String("url", target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("[FetchWKT] in pkg [srs] encountered: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s for EPSG:%d", ErrHTTPStatus, resp.Status, code)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
