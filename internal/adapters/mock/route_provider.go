package mock

import (
	"context"
	"fmt"
	"sync"

	"facility-route-service/internal/domain"
)

type RoutePair struct {
	From, To domain.Coordinate
	Plan     domain.RoutePlan
	Err      error
}

// RouteProvider answers Route from a fixed table of origin/destination pairs.
type RouteProvider struct {
	mu    sync.Mutex
	m     map[string]RoutePair
	calls int
}

func key(from, to domain.Coordinate) string {
	return from.String() + "|" + to.String()
}

func NewRouteProvider(pairs ...RoutePair) *RouteProvider {
	m := make(map[string]RoutePair, len(pairs))
	for _, p := range pairs {
		m[key(p.From, p.To)] = p
	}
	return &RouteProvider{m: m}
}

func (p *RouteProvider) Route(ctx context.Context, req domain.RouteRequest) (domain.RoutePlan, error) {
	p.mu.Lock()
	p.calls++
	pair, ok := p.m[key(req.Origin, req.Destination)]
	p.mu.Unlock()

	if !ok {
		return domain.RoutePlan{}, fmt.Errorf("missing pair %s -> %s", req.Origin, req.Destination)
	}
	if pair.Err != nil {
		return domain.RoutePlan{}, pair.Err
	}
	return pair.Plan, nil
}

func (p *RouteProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// RouteCache is an in-memory ports.RouteCache.
type RouteCache struct {
	mu     sync.Mutex
	plans  map[string]domain.RoutePlan
	GetErr error
	PutErr error
}

func NewRouteCache() *RouteCache {
	return &RouteCache{plans: make(map[string]domain.RoutePlan)}
}

func (c *RouteCache) Get(ctx context.Context, req domain.RouteRequest) (domain.RoutePlan, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.GetErr != nil {
		return domain.RoutePlan{}, false, c.GetErr
	}
	p, ok := c.plans[key(req.Origin, req.Destination)]
	return p, ok, nil
}

func (c *RouteCache) Put(ctx context.Context, req domain.RouteRequest, plan domain.RoutePlan) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.PutErr != nil {
		return c.PutErr
	}
	c.plans[key(req.Origin, req.Destination)] = plan
	return nil
}

func (c *RouteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.plans)
}
