package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	catalog "bistroPulse/internal/modules/catalog/domain"
	"bistroPulse/internal/modules/listing/application/port"
	"bistroPulse/internal/shared/normalization"
)

const maxListBody = 8 << 20

// CatalogHTTPClient talks to the BistroPulse REST API for every catalog entity.
type CatalogHTTPClient struct {
	rest      *RESTClient
	timeout   time.Duration
	validator *RecordValidator
}

func NewCatalogHTTPClient(baseURL string, timeout time.Duration, client *http.Client) *CatalogHTTPClient {
	return &CatalogHTTPClient{
		rest:      NewRESTClient(baseURL, timeout, client),
		timeout:   timeoutOrDefault(timeout),
		validator: NewRecordValidator(),
	}
}

// Validator returns the validator used on decoded records, for reuse on edits.
func (c *CatalogHTTPClient) Validator() *RecordValidator { return c.validator }

// List fetches and decodes every record of the descriptor's entity. One record that does
// not decode or validate fails the whole list with port.ErrInvalidPayload.
func (c *CatalogHTTPClient) List(ctx context.Context, token string, descriptor catalog.Descriptor, audience Audience) ([]catalog.Record, error) {
	variant, ok := resolveEndpoint(descriptor.Entity, audience)
	if !ok || variant.listPathBuilder == nil {
		slog.Warn("catalog list entity unsupported", slog.String("entity", descriptor.Entity))
		return nil, port.ErrUnsupported
	}
	listPath, err := variant.listPathBuilder("")
	if err != nil {
		slog.Warn("catalog list path build failed", slog.String("entity", descriptor.Entity), slog.Any("error", err))
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slog.Info("catalog list fetch start", slog.String("entity", descriptor.Entity), slog.String("audience", string(audience)))
	body, err := c.perform(ctx, http.MethodGet, token, listPath, nil)
	if err != nil {
		return nil, err
	}
	records, err := c.decodeList(body, descriptor)
	if err != nil {
		slog.Error("catalog list decode failed", slog.String("entity", descriptor.Entity), slog.Any("error", err))
		return nil, err
	}
	slog.Info("catalog list fetch done", slog.String("entity", descriptor.Entity), slog.Int("count", len(records)))
	return records, nil
}

// Delete removes one record.
func (c *CatalogHTTPClient) Delete(ctx context.Context, token, entity string, audience Audience, id string) error {
	variant, ok := resolveEndpoint(entity, audience)
	if !ok || variant.detailPathBuilder == nil {
		return port.ErrUnsupported
	}
	path, err := variant.detailPathBuilder(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err = c.perform(ctx, http.MethodDelete, token, path, nil)
	return err
}

// SetStatus sends the status fields of a record to its status endpoint.
func (c *CatalogHTTPClient) SetStatus(ctx context.Context, token, entity string, audience Audience, id string, status map[string]any) error {
	variant, ok := resolveEndpoint(entity, audience)
	if !ok || variant.statusPathBuilder == nil {
		return port.ErrUnsupported
	}
	path, err := variant.statusPathBuilder(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err = c.perform(ctx, http.MethodPatch, token, path, status)
	return err
}

// Update replaces a record.
func (c *CatalogHTTPClient) Update(ctx context.Context, token, entity string, audience Audience, id string, payload map[string]any) error {
	variant, ok := resolveEndpoint(entity, audience)
	if !ok || variant.detailPathBuilder == nil {
		return port.ErrUnsupported
	}
	path, err := variant.detailPathBuilder(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err = c.perform(ctx, http.MethodPut, token, path, payload)
	return err
}

func (c *CatalogHTTPClient) perform(ctx context.Context, method, token, path string, payload map[string]any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(compactPayload(payload))
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := c.rest.NewRequest(ctx, method, path, body)
	if err != nil {
		slog.Error("catalog request build failed", slog.String("path", path), slog.Any("error", err))
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		req.Header.Set("Authorization", "Bearer "+trimmed)
	}
	slog.Debug("catalog request", slog.String("method", method), slog.String("url", req.URL.String()))

	res, err := c.rest.Do(req)
	if err != nil {
		slog.Error("catalog request error", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer res.Body.Close()
	slog.Debug("catalog response", slog.Int("status", res.StatusCode), slog.String("url", req.URL.String()))

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, port.ErrForbidden
	case res.StatusCode == http.StatusNotFound:
		return nil, port.ErrNotFound
	case res.StatusCode < 200 || res.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		slog.Error("catalog unexpected status",
			slog.Int("status", res.StatusCode),
			slog.String("url", req.URL.String()),
			slog.String("body", strings.TrimSpace(string(snippet))),
		)
		return nil, fmt.Errorf("%w: %d", port.ErrUnexpectedStatus, res.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxListBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}

func (c *CatalogHTTPClient) decodeList(body []byte, descriptor catalog.Descriptor) ([]catalog.Record, error) {
	if err := validateListEnvelope(body); err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrInvalidPayload, err)
	}
	items, ok := normalization.ItemsFromPayload(payload)
	if !ok {
		return nil, fmt.Errorf("%w: no %s collection in response", port.ErrInvalidPayload, descriptor.Entity)
	}

	records := make([]catalog.Record, 0, len(items))
	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: record %d is not an object", port.ErrInvalidPayload, i)
		}
		record, ok := descriptor.Decode(raw)
		if !ok {
			return nil, fmt.Errorf("%w: record %d has no id", port.ErrInvalidPayload, i)
		}
		if fields := c.validator.ValidateFields(record, descriptor.RequiredFields...); len(fields) > 0 {
			return nil, fmt.Errorf("%w: record %s: %s", port.ErrInvalidPayload, record.EntityID(), describeFields(fields))
		}
		records = append(records, record)
	}
	return records, nil
}

// compactPayload drops nil values so optional fields are omitted from request bodies.
func compactPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		if value != nil {
			out[key] = value
		}
	}
	return out
}

func describeFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for field, message := range fields {
		parts = append(parts, field+" "+message)
	}
	return strings.Join(parts, ", ")
}
