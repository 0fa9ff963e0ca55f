package transport

import (
	"context"
	"strings"

	catalog "bistroPulse/internal/modules/catalog/domain"
	"bistroPulse/internal/modules/console/application/usecase"
	listingport "bistroPulse/internal/modules/listing/application/port"
	listing "bistroPulse/internal/modules/listing/application/usecase"
	"bistroPulse/internal/modules/listing/domain"
)

// The page operations below back both the REST routes and the websocket commands.
// Mutations return the optimistic view; the outcome arrives later as a view and a toast.

// Typed terms are trimmed; a blank box clears the search.
func searchPage(page *usecase.Page, term string) listing.View {
	return page.Controller().SetSearch(strings.TrimSpace(term))
}

func filterPage(page *usecase.Page, criteria map[string]string) listing.View {
	controller := page.Controller()
	if len(criteria) == 0 {
		return controller.View()
	}
	var view listing.View
	for key, value := range criteria {
		view = controller.SetFilter(key, value)
	}
	return view
}

func deleteItem(ctx context.Context, page *usecase.Page, id string, confirmed bool) (listing.View, error) {
	if page.Descriptor().ReadOnly {
		return listing.View{}, listingport.ErrUnsupported
	}
	if _, err := page.Controller().Delete(ctx, strings.TrimSpace(id), listing.ConfirmIf(confirmed)); err != nil {
		return listing.View{}, err
	}
	return page.Controller().View(), nil
}

func toggleItem(ctx context.Context, page *usecase.Page, id string) (listing.View, error) {
	if page.Descriptor().ReadOnly {
		return listing.View{}, listingport.ErrUnsupported
	}
	if _, err := page.Controller().ToggleStatus(ctx, strings.TrimSpace(id)); err != nil {
		return listing.View{}, err
	}
	return page.Controller().View(), nil
}

func updateItem(ctx context.Context, page *usecase.Page, id string, patch map[string]any) (listing.View, error) {
	descriptor := page.Descriptor()
	if descriptor.ReadOnly {
		return listing.View{}, listingport.ErrUnsupported
	}
	existing, ok := page.Controller().Find(strings.TrimSpace(id))
	if !ok {
		return listing.View{}, domain.ErrEntityNotFound
	}
	record, ok := existing.(catalog.Record)
	if !ok {
		return listing.View{}, domain.ErrEntityNotFound
	}
	edited, fields, ok := descriptor.Patch(record, patch)
	if len(fields) > 0 {
		return listing.View{}, domain.ValidationFailure(descriptor.Entity, listing.ActionUpdate, fields)
	}
	if !ok {
		return listing.View{}, domain.ValidationFailure(descriptor.Entity, listing.ActionUpdate, map[string]string{"id": "is required"})
	}
	if _, err := page.Controller().Update(ctx, edited); err != nil {
		return listing.View{}, err
	}
	return page.Controller().View(), nil
}
