package infrastructure

import (
	"fmt"
	"net/url"
	"strings"

	"bistroPulse/internal/modules/listing/application/port"
	"bistroPulse/internal/shared/auth"
)

// Audience selects which family of REST endpoints a session uses.
type Audience string

const (
	AudienceAdmin Audience = "admin"
	AudienceOwner Audience = "owner"
)

// AudienceForRole maps a session role onto an endpoint audience. Only admins get the admin endpoints.
func AudienceForRole(role auth.Role) Audience {
	if role == auth.RoleAdmin {
		return AudienceAdmin
	}
	return AudienceOwner
}

type pathBuilder func(string) (string, error)

type endpointVariant struct {
	listPathBuilder   pathBuilder
	detailPathBuilder pathBuilder
	statusPathBuilder pathBuilder
}

type entityEndpoint struct {
	defaultVariant endpointVariant
	ownerVariant   *endpointVariant
}

func (e entityEndpoint) resolveVariant(audience Audience) endpointVariant {
	variant := e.defaultVariant
	if audience == AudienceOwner && e.ownerVariant != nil {
		variant = mergeVariants(variant, *e.ownerVariant)
	}
	return variant
}

func mergeVariants(base, override endpointVariant) endpointVariant {
	result := base
	if override.listPathBuilder != nil {
		result.listPathBuilder = override.listPathBuilder
	}
	if override.detailPathBuilder != nil {
		result.detailPathBuilder = override.detailPathBuilder
	}
	if override.statusPathBuilder != nil {
		result.statusPathBuilder = override.statusPathBuilder
	}
	return result
}

var entityEndpoints = map[string]entityEndpoint{
	"customers": {
		defaultVariant: endpointVariant{
			listPathBuilder:   staticPathBuilder("/api/admin/customers"),
			detailPathBuilder: resourcePathBuilder("/api/admin/customers"),
			statusPathBuilder: subresourcePathBuilder("/api/admin/customers", "status"),
		},
	},
	"restaurants": {
		defaultVariant: endpointVariant{
			listPathBuilder:   staticPathBuilder("/api/admin/restaurants"),
			detailPathBuilder: resourcePathBuilder("/api/admin/restaurants"),
			statusPathBuilder: subresourcePathBuilder("/api/admin/restaurants", "status"),
		},
		ownerVariant: &endpointVariant{
			listPathBuilder:   staticPathBuilder("/api/owner/restaurants"),
			detailPathBuilder: resourcePathBuilder("/api/owner/restaurants"),
			statusPathBuilder: subresourcePathBuilder("/api/owner/restaurants", "status"),
		},
	},
	"menu-items": {
		defaultVariant: endpointVariant{
			listPathBuilder:   staticPathBuilder("/api/admin/foods"),
			detailPathBuilder: resourcePathBuilder("/api/admin/foods"),
			statusPathBuilder: subresourcePathBuilder("/api/admin/foods", "availability"),
		},
		ownerVariant: &endpointVariant{
			listPathBuilder:   staticPathBuilder("/api/owner/foods"),
			detailPathBuilder: resourcePathBuilder("/api/owner/foods"),
			statusPathBuilder: subresourcePathBuilder("/api/owner/foods", "availability"),
		},
	},
	"owners": {
		defaultVariant: endpointVariant{
			listPathBuilder:   staticPathBuilder("/api/admin/owners"),
			detailPathBuilder: resourcePathBuilder("/api/admin/owners"),
			statusPathBuilder: subresourcePathBuilder("/api/admin/owners", "status"),
		},
	},
	"orders": {
		defaultVariant: endpointVariant{
			listPathBuilder: staticPathBuilder("/api/admin/orders"),
		},
		ownerVariant: &endpointVariant{
			listPathBuilder: staticPathBuilder("/api/owner/orders"),
		},
	},
}

func resolveEndpoint(entity string, audience Audience) (endpointVariant, bool) {
	endpoint, ok := entityEndpoints[strings.ToLower(strings.TrimSpace(entity))]
	if !ok {
		return endpointVariant{}, false
	}
	return endpoint.resolveVariant(audience), true
}

func staticPathBuilder(path string) pathBuilder {
	trimmed := strings.TrimSpace(path)
	return func(string) (string, error) {
		if trimmed == "" {
			return "", fmt.Errorf("missing path configuration")
		}
		return trimmed, nil
	}
}

func resourcePathBuilder(base string) pathBuilder {
	trimmed := strings.TrimSpace(base)
	return func(value string) (string, error) {
		identifier := strings.TrimSpace(value)
		if identifier == "" {
			return "", port.ErrNotFound
		}
		return strings.TrimRight(trimmed, "/") + "/" + url.PathEscape(identifier), nil
	}
}

func subresourcePathBuilder(base, suffix string) pathBuilder {
	resource := resourcePathBuilder(base)
	return func(value string) (string, error) {
		path, err := resource(value)
		if err != nil {
			return "", err
		}
		return path + "/" + strings.Trim(suffix, "/"), nil
	}
}
