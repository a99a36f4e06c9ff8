// Package coordinator implementa el fan-out/fan-in multi-tenant del motor:
// una lectura rápida desde cache (fase 1) y un refresh concurrente por
// tenant (fase 2), cada fetch con el token del tenant dueño de la llamada.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fieldcrew/crewsync/internal/cache"
	"github.com/fieldcrew/crewsync/internal/metrics"
	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/observability/logger"
	"github.com/fieldcrew/crewsync/internal/remote"
)

// errSuperseded marca una completion vieja descartada por el guard de
// generación. Nunca se propaga al caller.
var errSuperseded = errors.New("superseded fetch completion")

// CredentialSource es lo que el coordinador necesita del credstore.
type CredentialSource interface {
	Active() []model.TenantCredential
	All() []model.TenantCredential
	TokenFor(tenantID string) (remote.TenantToken, error)
	MarkRevoked(ctx context.Context, tenantID string, status model.CredentialStatus) error
}

// Phase distingue la entrega rápida desde cache de la autoritativa de red.
type Phase string

const (
	PhaseCached Phase = "cached"
	PhaseFresh  Phase = "fresh"
)

// ShiftDelivery es una entrega de RefreshShifts. Para la misma llamada,
// la entrega cached siempre precede a la fresh.
type ShiftDelivery struct {
	Phase   Phase
	Records []model.ShiftRecord
	Stale   bool  // fase cached: alguna de las listas estaba vencida
	Err     error // solo fase fresh, cuando no hubo nada para mostrar
}

// Delivery es la entrega genérica de los recursos single-tenant
// (leaderboards).
type Delivery[T any] struct {
	Phase Phase
	Value T
	Stale bool
	Err   error
}

// Config del coordinador. El TTL de rankings es ~10× el de turnos porque
// cambian lento.
type Config struct {
	ShiftTTL       time.Duration
	LeaderboardTTL time.Duration
	Window         remote.FetchWindow
}

func (c *Config) withDefaults() {
	if c.ShiftTTL <= 0 {
		c.ShiftTTL = 5 * time.Minute
	}
	if c.LeaderboardTTL <= 0 {
		c.LeaderboardTTL = 10 * c.ShiftTTL
	}
	if c.Window == (remote.FetchWindow{}) {
		c.Window = remote.DefaultWindow
	}
}

// Coordinator es el MultiTenantFetchCoordinator. Cache y credstore se
// inyectan explícitamente: no hay singletons escondidos.
type Coordinator struct {
	creds  CredentialSource
	store  cache.Store
	client remote.Client
	cfg    Config

	genMu sync.Mutex
	gens  map[cache.Key]uint64

	sf      singleflight.Group
	nowFunc func() time.Time
}

// New crea un Coordinator.
func New(creds CredentialSource, store cache.Store, client remote.Client, cfg Config) *Coordinator {
	cfg.withDefaults()
	return &Coordinator{
		creds:   creds,
		store:   store,
		client:  client,
		cfg:     cfg,
		gens:    make(map[cache.Key]uint64),
		nowFunc: time.Now,
	}
}

// nextGen incrementa y retorna la generación de una key. Cada refresh nuevo
// invalida la relevancia de cualquier fetch anterior en vuelo.
func (c *Coordinator) nextGen(key cache.Key) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	c.gens[key]++
	return c.gens[key]
}

// genCurrent reporta si gen sigue siendo la generación vigente de key.
func (c *Coordinator) genCurrent(key cache.Key, gen uint64) bool {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.gens[key] == gen
}

func shiftKey(tenantID string) cache.Key {
	return cache.Key{TenantID: tenantID, Kind: cache.KindShiftList}
}

// RefreshShifts entrega en dos fases:
//
// Fase 1 (sincrónica, antes de retornar): si algún tenant tiene entrada de
// cache (fresca o vencida) entrega el merge de lo disponible sin esperar red.
//
// Fase 2 (asincrónica): un fetch concurrente por tenant activo, cada uno con
// su propio token. Un tenant que falla no bloquea al resto. El canal
// retornado se cierra cuando la fase 2 terminó.
func (c *Coordinator) RefreshShifts(ctx context.Context, deliver func(ShiftDelivery)) <-chan struct{} {
	tenants := c.creds.Active()

	lists, anyStale, anyCached := c.cachedShiftLists(ctx, tenants)
	if anyCached {
		deliver(ShiftDelivery{
			Phase:   PhaseCached,
			Records: MergeShifts(c.nowFunc(), lists...),
			Stale:   anyStale,
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		recs, err := c.fetchAllShifts(ctx, tenants)
		switch {
		case err == nil:
			deliver(ShiftDelivery{Phase: PhaseFresh, Records: recs})
		case errors.Is(err, errSuperseded):
			// un refresh más nuevo ya está en vuelo; esta entrega se descarta
		case anyCached:
			// ya mostramos datos; la falla de red solo se loguea
			logger.From(ctx).Warn("shift refresh failed, cached data already delivered", logger.Err(err))
		default:
			deliver(ShiftDelivery{Phase: PhaseFresh, Err: err})
		}
	}()
	return done
}

// cachedShiftLists junta las listas cacheadas (frescas o vencidas) de los
// tenants dados.
func (c *Coordinator) cachedShiftLists(ctx context.Context, tenants []model.TenantCredential) ([][]model.ShiftRecord, bool, bool) {
	var lists [][]model.ShiftRecord
	var anyStale bool
	for _, t := range tenants {
		payload, stale, ok := c.store.Get(ctx, shiftKey(t.TenantID))
		if !ok {
			metrics.CacheReads.WithLabelValues("miss").Inc()
			continue
		}
		if stale {
			metrics.CacheReads.WithLabelValues("stale").Inc()
		} else {
			metrics.CacheReads.WithLabelValues("fresh").Inc()
		}
		var recs []model.ShiftRecord
		if err := json.Unmarshal(payload, &recs); err != nil {
			logger.From(ctx).Warn("cached payload corrupt, dropping", logger.TenantID(t.TenantID), logger.Err(err))
			c.store.Invalidate(ctx, shiftKey(t.TenantID))
			continue
		}
		lists = append(lists, recs)
		anyStale = anyStale || stale
	}
	return lists, anyStale, len(lists) > 0
}

// fetchAllShifts hace el fan-out: un fetch por tenant, espera a todos, y
// mergea lo que llegó. Retorna error solo si fallaron todos.
func (c *Coordinator) fetchAllShifts(ctx context.Context, tenants []model.TenantCredential) ([]model.ShiftRecord, error) {
	if len(tenants) == 0 {
		return nil, &remote.APIError{Kind: remote.ErrNoCachedData, Detail: "no active tenants"}
	}

	var (
		mu         sync.Mutex
		lists      [][]model.ShiftRecord
		firstErr   error
		failures   int
		superseded int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tenants {
		tenant := t
		g.Go(func() error {
			recs, err := c.fetchTenantShifts(gctx, tenant.TenantID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				lists = append(lists, recs)
			case errors.Is(err, errSuperseded):
				// descartada, no cuenta como falla del tenant
				superseded++
			default:
				failures++
				if firstErr == nil {
					firstErr = err
				}
				logger.From(ctx).Warn("tenant fetch failed", logger.TenantID(tenant.TenantID), logger.Err(err))
			}
			// nunca propagar: un tenant caído no aborta a los demás
			return nil
		})
	}
	_ = g.Wait()

	if len(lists) == 0 {
		if failures > 0 {
			return nil, firstErr
		}
		if superseded > 0 {
			// todas las completions quedaron viejas: la entrega le
			// pertenece al refresh más nuevo, acá no se entrega nada
			return nil, errSuperseded
		}
	}
	return MergeShifts(c.nowFunc(), lists...), nil
}

// fetchTenantShifts hace el fetch de un tenant con su propio token y
// actualiza el cache si la completion sigue vigente.
func (c *Coordinator) fetchTenantShifts(ctx context.Context, tenantID string) ([]model.ShiftRecord, error) {
	key := shiftKey(tenantID)
	gen := c.nextGen(key)

	tok, err := c.creds.TokenFor(tenantID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	recs, err := c.client.FetchShiftList(ctx, tok, c.cfg.Window)
	metrics.FetchLatency.Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		if remote.IsUnauthorized(err) {
			metrics.FetchTotal.WithLabelValues(tenantID, "unauthorized").Inc()
			// el tenant necesita re-inscripción; no frena a los demás
			if rerr := c.creds.MarkRevoked(ctx, tenantID, model.StatusRevoked); rerr != nil {
				logger.From(ctx).Warn("mark revoked failed", logger.TenantID(tenantID), logger.Err(rerr))
			}
		} else {
			metrics.FetchTotal.WithLabelValues(tenantID, "error").Inc()
		}
		return nil, err
	}

	if !c.genCurrent(key, gen) {
		metrics.SupersededCompletions.Inc()
		logger.From(ctx).Debug("stale completion discarded", logger.TenantID(tenantID), logger.Generation(gen))
		return nil, errSuperseded
	}

	metrics.FetchTotal.WithLabelValues(tenantID, "ok").Inc()
	if payload, merr := json.Marshal(recs); merr == nil {
		c.store.Put(ctx, key, payload, c.cfg.ShiftTTL)
	}
	return recs, nil
}

// CachedShifts mergea todo lo cacheado de todos los tenants, incluidos los
// revocados o con temporada terminada (resumen offline). No toca la red.
func (c *Coordinator) CachedShifts(ctx context.Context) ([]model.ShiftRecord, error) {
	lists, _, any := c.cachedShiftLists(ctx, c.creds.All())
	if !any {
		return nil, &remote.APIError{Kind: remote.ErrNoCachedData}
	}
	return MergeShifts(c.nowFunc(), lists...), nil
}

// AddVolunteer anota un voluntario. La validación (largo de nombre,
// duplicados) la hace el backend; acá solo se invalida el cache del tenant
// para que la próxima lectura fuerce refresh.
func (c *Coordinator) AddVolunteer(ctx context.Context, tenantID, recordID, name string) (*model.ShiftRecord, error) {
	tok, err := c.creds.TokenFor(tenantID)
	if err != nil {
		return nil, err
	}
	rec, err := c.client.AddVolunteer(ctx, tok, recordID, name)
	if err != nil {
		return nil, err
	}
	c.store.Invalidate(ctx, shiftKey(tenantID))
	return rec, nil
}

// RemoveVolunteer borra un voluntario. Mismo contrato que AddVolunteer.
func (c *Coordinator) RemoveVolunteer(ctx context.Context, tenantID, recordID, name string) (*model.ShiftRecord, error) {
	tok, err := c.creds.TokenFor(tenantID)
	if err != nil {
		return nil, err
	}
	rec, err := c.client.RemoveVolunteer(ctx, tok, recordID, name)
	if err != nil {
		return nil, err
	}
	c.store.Invalidate(ctx, shiftKey(tenantID))
	return rec, nil
}
