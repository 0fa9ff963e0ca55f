package infrastructure

import (
	"context"
	"fmt"

	catalog "bistroPulse/internal/modules/catalog/domain"
	"bistroPulse/internal/modules/listing/application/port"
	listing "bistroPulse/internal/modules/listing/domain"
)

// Gateway adapts CatalogHTTPClient to the list gateway of one entity and audience.
type Gateway struct {
	client     *CatalogHTTPClient
	descriptor catalog.Descriptor
	tokens     port.TokenSource
	audience   Audience
}

func NewGateway(client *CatalogHTTPClient, entity string, tokens port.TokenSource, audience Audience) (*Gateway, error) {
	descriptor, ok := catalog.Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", port.ErrUnsupported, entity)
	}
	return &Gateway{client: client, descriptor: descriptor, tokens: tokens, audience: audience}, nil
}

func (g *Gateway) List(ctx context.Context) ([]listing.Entity, error) {
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	records, err := g.client.List(ctx, token, g.descriptor, g.audience)
	if err != nil {
		return nil, err
	}
	entities := make([]listing.Entity, len(records))
	for i, record := range records {
		entities[i] = record
	}
	return entities, nil
}

func (g *Gateway) Delete(ctx context.Context, id string) error {
	if g.descriptor.ReadOnly {
		return port.ErrUnsupported
	}
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	return g.client.Delete(ctx, token, g.descriptor.Entity, g.audience, id)
}

func (g *Gateway) SetStatus(ctx context.Context, entity listing.Entity) error {
	record, err := g.writable(entity)
	if err != nil {
		return err
	}
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	payload := record.Payload()
	status := map[string]any{g.descriptor.StatusField: payload[g.descriptor.StatusField]}
	return g.client.SetStatus(ctx, token, g.descriptor.Entity, g.audience, record.EntityID(), status)
}

func (g *Gateway) Update(ctx context.Context, entity listing.Entity) error {
	record, err := g.writable(entity)
	if err != nil {
		return err
	}
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	return g.client.Update(ctx, token, g.descriptor.Entity, g.audience, record.EntityID(), record.Payload())
}

func (g *Gateway) writable(entity listing.Entity) (catalog.Record, error) {
	if g.descriptor.ReadOnly {
		return nil, port.ErrUnsupported
	}
	record, ok := entity.(catalog.Record)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a catalog record", port.ErrUnsupported, entity)
	}
	return record, nil
}

var _ port.Gateway = (*Gateway)(nil)
