package coordinator

import (
	"context"
	"encoding/json"

	"github.com/fieldcrew/crewsync/internal/cache"
	"github.com/fieldcrew/crewsync/internal/metrics"
	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/observability/logger"
	"github.com/fieldcrew/crewsync/internal/remote"
)

func leaderboardKey(tenantID string, period model.Period, teamID string) cache.Key {
	params := string(period)
	if teamID != "" {
		params += ":" + teamID
	}
	return cache.Key{TenantID: tenantID, Kind: cache.KindLeaderboard, Params: params}
}

func globalLeaderboardKey(tenantID string, period model.Period, teamID string) cache.Key {
	params := string(period)
	if teamID != "" {
		params += ":" + teamID
	}
	return cache.Key{TenantID: tenantID, Kind: cache.KindGlobalLeaderboard, Params: params}
}

// FetchLeaderboard trae el ranking del tenant con el mismo patrón de dos
// fases que los turnos, pero TTL largo: los rankings cambian lento.
func (c *Coordinator) FetchLeaderboard(ctx context.Context, tenantID string, period model.Period, teamID string, deliver func(Delivery[*model.LeaderboardPayload])) <-chan struct{} {
	key := leaderboardKey(tenantID, period, teamID)
	return twoPhase(c, ctx, key, deliver, func(fctx context.Context) (*model.LeaderboardPayload, error) {
		tok, err := c.creds.TokenFor(tenantID)
		if err != nil {
			return nil, err
		}
		return c.client.FetchLeaderboard(fctx, tok, period, teamID)
	})
}

// FetchGlobalLeaderboard trae el ranking entre tenants. Se pide con el token
// del tenant indicado (cualquiera activo sirve) y se cachea bajo ese tenant.
func (c *Coordinator) FetchGlobalLeaderboard(ctx context.Context, tenantID string, period model.Period, teamID string, deliver func(Delivery[*model.GlobalLeaderboardPayload])) <-chan struct{} {
	key := globalLeaderboardKey(tenantID, period, teamID)
	return twoPhase(c, ctx, key, deliver, func(fctx context.Context) (*model.GlobalLeaderboardPayload, error) {
		tok, err := c.creds.TokenFor(tenantID)
		if err != nil {
			return nil, err
		}
		return c.client.FetchGlobalLeaderboard(fctx, tok, period, teamID)
	})
}

// twoPhase es el motor genérico cached-then-fresh para recursos
// single-tenant: fase 1 sincrónica desde cache, fase 2 con singleflight y
// guard de generación.
func twoPhase[T any](c *Coordinator, ctx context.Context, key cache.Key, deliver func(Delivery[T]), fetch func(context.Context) (T, error)) <-chan struct{} {
	var delivered bool
	if payload, stale, ok := c.store.Get(ctx, key); ok {
		state := "fresh"
		if stale {
			state = "stale"
		}
		metrics.CacheReads.WithLabelValues(state).Inc()

		var v T
		if err := json.Unmarshal(payload, &v); err == nil {
			deliver(Delivery[T]{Phase: PhaseCached, Value: v, Stale: stale})
			delivered = true
		} else {
			c.store.Invalidate(ctx, key)
		}
	} else {
		metrics.CacheReads.WithLabelValues("miss").Inc()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		gen := c.nextGen(key)
		res, err, _ := c.sf.Do(key.String(), func() (any, error) {
			return fetch(ctx)
		})
		if err != nil {
			if remote.IsUnauthorized(err) {
				if rerr := c.creds.MarkRevoked(ctx, key.TenantID, model.StatusRevoked); rerr != nil {
					logger.From(ctx).Warn("mark revoked failed", logger.TenantID(key.TenantID), logger.Err(rerr))
				}
			}
			if delivered {
				logger.From(ctx).Warn("refresh failed, cached data already delivered",
					logger.Key(key.String()), logger.Err(err))
				return
			}
			deliver(Delivery[T]{Phase: PhaseFresh, Err: err})
			return
		}

		if !c.genCurrent(key, gen) {
			metrics.SupersededCompletions.Inc()
			return
		}

		v := res.(T)
		if payload, merr := json.Marshal(v); merr == nil {
			c.store.Put(ctx, key, payload, c.cfg.LeaderboardTTL)
		}
		deliver(Delivery[T]{Phase: PhaseFresh, Value: v})
	}()
	return done
}
