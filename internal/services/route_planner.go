package services

import (
	"context"
	"errors"
	"fmt"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"
	"facility-route-service/internal/ports"
)

// RoutePlanner turns a provider answer into either a plan, ErrNoRouteFound,
// or a *domain.RoutingUnavailableError wrapping whatever went wrong.
// It makes one provider call per request and never retries.
type RoutePlanner struct {
	provider ports.RouteProvider
	cache    ports.RouteCache
}

// cache may be nil.
func NewRoutePlanner(provider ports.RouteProvider, cache ports.RouteCache) *RoutePlanner {
	return &RoutePlanner{provider: provider, cache: cache}
}

func (p *RoutePlanner) PlanRoute(ctx context.Context, req domain.RouteRequest) (_ domain.RoutePlan, err error) {
	defer obs.Time(ctx, "routes.PlanRoute")(&err)

	if err := req.Validate(); err != nil {
		return domain.RoutePlan{}, fmt.Errorf("plan route: %w", err)
	}

	// Cache trouble never blocks routing.
	if p.cache != nil {
		plan, ok, cerr := p.cache.Get(ctx, req)
		if cerr != nil {
			obs.Logger(ctx).Warn().Err(cerr).Msg("route cache read failed")
		} else if ok {
			return plan, nil
		}
	}

	plan, err := p.provider.Route(ctx, req)
	if errors.Is(err, domain.ErrNoRouteFound) {
		return domain.RoutePlan{}, domain.ErrNoRouteFound
	}
	if err != nil {
		return domain.RoutePlan{}, &domain.RoutingUnavailableError{Err: err}
	}
	if verr := plan.Validate(); verr != nil {
		return domain.RoutePlan{}, &domain.RoutingUnavailableError{Err: verr}
	}

	if p.cache != nil {
		if cerr := p.cache.Put(ctx, req, plan); cerr != nil {
			obs.Logger(ctx).Warn().Err(cerr).Msg("route cache write failed")
		}
	}

	return plan, nil
}
