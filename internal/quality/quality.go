// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality is the client of the external quality-assessment service.
// The service receives a serialized record and answers with one property
// describing the record's quality, which is appended to a copy of the record.
//
// The service is shared and rate-limited. The client never retries; callers
// converting many records must space their calls (see QualityConfig.Delay).
package quality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/WardLT/pif-dft/internal/httputil"
	"github.com/WardLT/pif-dft/pkg/pif"
	"github.com/WardLT/pif-dft/pkg/types"
)

// DefaultPropertyName names the appended property when the service does not.
const DefaultPropertyName = "Quality Report"

// DefaultTimeout bounds one call when the configuration sets none.
const DefaultTimeout = 30 * time.Second

// apiKeyHeader carries the service credential.
const apiKeyHeader = "X-API-Key"

var (
	// ErrMalformedResponse means the service answered 2xx with a body that is
	// not a usable property.
	ErrMalformedResponse = errors.New("malformed quality response")

	// ErrDuplicateProperty means the record already holds a property with the
	// name the service returned.
	ErrDuplicateProperty = errors.New("quality property already present")

	// ErrNoURL means the client was configured without an endpoint.
	ErrNoURL = errors.New("quality service URL not configured")
)

// Client posts records to the quality service.
type Client struct {
	url       string
	apiKey    string
	userAgent string
	timeout   time.Duration
	http      *http.Client
}

// NewClient builds a client from cfg. apiKey may be empty for services that
// need no credential.
func NewClient(cfg types.QualityConfig, apiKey string) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:       cfg.URL,
		apiKey:    apiKey,
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

// Annotate sends rec to the service in exactly one request and returns a
// copy of rec with the returned property appended. rec is not modified.
func (c *Client) Annotate(ctx context.Context, rec *pif.Record) (*pif.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("annotating: nil record")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	header := http.Header{}
	if c.apiKey != "" {
		header.Set(apiKeyHeader, c.apiKey)
	}
	if c.userAgent != "" {
		header.Set("User-Agent", c.userAgent)
	}

	var prop pif.Property
	if err := httputil.PostJSON(ctx, c.http, c.url, header, rec, &prop); err != nil {
		var (
			syntaxErr *json.SyntaxError
			typeErr   *json.UnmarshalTypeError
		)
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("quality request to %s: %w", c.url, err)
	}

	if prop.Name == "" {
		prop.Name = DefaultPropertyName
	}
	if len(prop.Scalars) == 0 {
		return nil, fmt.Errorf("%w: property %q has no scalars", ErrMalformedResponse, prop.Name)
	}
	if _, exists := pif.GetPropertyByName(rec, prop.Name); exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateProperty, prop.Name)
	}

	out := rec.Clone()
	out.Properties = append(out.Properties, prop)
	return out, nil
}
