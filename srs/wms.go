package srs

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Sentinel errors for remote lookups.
var (
	// ErrLayerNotFound indicates the WMS capabilities have no such layer.
	ErrLayerNotFound = errors.New("srs: layer not found")
	// ErrHTTPStatus indicates a non-200 response.
	ErrHTTPStatus = errors.New("srs: unexpected http status")
)

// Layer is a named WMS layer with every CRS it can be requested in.
type Layer struct {
	Name  string
	Title string
	CRS   []string
}

// capabilities covers WMS 1.1.1 (SRS) and 1.3.0 (CRS) documents.
type capabilities struct {
	Version    string `xml:"version,attr"`
	Capability struct {
		Layer capLayer `xml:"Layer"`
	} `xml:"Capability"`
}

type capLayer struct {
	Name   string     `xml:"Name"`
	Title  string     `xml:"Title"`
	SRS    []string   `xml:"SRS"`
	CRS    []string   `xml:"CRS"`
	Layers []capLayer `xml:"Layer"`
}

// WMSClient reads WMS GetCapabilities documents.
type WMSClient struct {
	HTTP   *http.Client
	Logger *zap.Logger
}

// NewWMSClient returns a client using hc, or http.DefaultClient when nil.
func NewWMSClient(hc *http.Client, logger *zap.Logger) *WMSClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WMSClient{HTTP: hc, Logger: logger}
}

// CRSOptions returns the CRS codes the named layer supports, including the
// ones inherited from its parent layers.
func (c *WMSClient) CRSOptions(ctx context.Context, serviceURL, layer string) ([]string, error) {
	layers, err := c.Layers(ctx, serviceURL)
	if err != nil {
		return nil, err
	}
	for _, l := range layers {
		if l.Name == layer {
			return l.CRS, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, layer)
}

// Layers returns every named layer of the service.
func (c *WMSClient) Layers(ctx context.Context, serviceURL string) ([]Layer, error) {
	caps, err := c.capabilities(ctx, serviceURL)
	if err != nil {
		return nil, err
	}
	var out []Layer
	walk(caps.Capability.Layer, nil, &out)
	return out, nil
}

func walk(l capLayer, inherited []string, out *[]Layer) {
	crs := inherited
	for _, list := range [][]string{l.SRS, l.CRS} {
		for _, entry := range list {
			// 1.1.1 servers may list several codes in one element
			for _, code := range strings.Fields(entry) {
				crs = appendUnique(crs, code)
			}
		}
	}

	if l.Name != "" {
		*out = append(*out, Layer{Name: l.Name, Title: l.Title, CRS: crs})
	}
	for _, child := range l.Layers {
		walk(child, crs, out)
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	// copy so siblings never share a backing array
	out := make([]string, len(list), len(list)+1)
	copy(out, list)
	return append(out, s)
}

// capabilitiesURL adds the GetCapabilities parameters to serviceURL.
func capabilitiesURL(serviceURL string) (string, error) {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("SERVICE", "WMS")
	q.Set("REQUEST", "GetCapabilities")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *WMSClient) capabilities(ctx context.Context, serviceURL string) (*capabilities, error) {
	target, err := capabilitiesURL(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("[url.Parse] in pkg [srs] encountered: %w", err)
	}
	c.Logger.Debug("fetching wms capabilities", zap.String("url", target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[GetCapabilities] in pkg [srs] encountered: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s from %s", ErrHTTPStatus, resp.Status, target)
	}

	var caps capabilities
	dec := xml.NewDecoder(resp.Body)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&caps); err != nil {
		return nil, fmt.Errorf("[xml.Decode] in pkg [srs] encountered: %w", err)
	}
	return &caps, nil
}
