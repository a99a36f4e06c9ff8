// Package reconcile implementa el protocolo de reconciliación de
// inscripciones: el dispositivo declara su estado local completo y el
// backend responde qué quedó huérfano. Nunca se envía estado parcial.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/fieldcrew/crewsync/internal/metrics"
	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/observability/logger"
	"github.com/fieldcrew/crewsync/internal/remote"
)

// Outcome clasifica el resultado de una llamada a Sync.
type Outcome string

const (
	OutcomeSynced    Outcome = "synced"
	OutcomeThrottled Outcome = "throttled"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Report es lo que Sync le devuelve al caller.
type Report struct {
	Outcome Outcome
	Result  model.ReconciliationResult // válido para synced y throttled
	Err     error                      // seteado solo para failed y skipped
}

// CredentialSource es lo que el engine necesita del credstore.
type CredentialSource interface {
	Active() []model.TenantCredential
	TokenFor(tenantID string) (remote.TenantToken, error)
}

// defaultThrottle: una reconciliación exitosa por hora y por hardware id.
const defaultThrottle = time.Hour

// Engine es el ReconciliationEngine.
type Engine struct {
	creds    CredentialSource
	client   remote.Client
	dir      *TeamDirectory
	throttle time.Duration

	mu      sync.Mutex
	last    map[string]lastSync // por hardware id, solo syncs exitosos
	nowFunc func() time.Time
}

type lastSync struct {
	result model.ReconciliationResult
	at     time.Time
}

// New crea el engine. throttle <= 0 usa el default de 1 hora.
func New(creds CredentialSource, client remote.Client, dir *TeamDirectory, throttle time.Duration) *Engine {
	if throttle <= 0 {
		throttle = defaultThrottle
	}
	return &Engine{
		creds:    creds,
		client:   client,
		dir:      dir,
		throttle: throttle,
		last:     make(map[string]lastSync),
		nowFunc:  time.Now,
	}
}

// Sync arma un snapshot por credencial activa y lo intercambia con el
// backend.
//
//   - Throttle: dentro de 1h del último sync exitoso del mismo hardwareID es
//     un no-op que devuelve el resultado anterior, sin tocar la red.
//   - Guard todo-o-nada: si el mapeo de metadatos falla para algún equipo
//     inscripto, la llamada entera se aborta como "skipped"; jamás se manda
//     un sync parcial o por-tenant.
//   - Éxito: solo avanza el timestamp de último sync. Los estados de
//     credencial no se mutan desde el cleanup summary; eso lo disparan los
//     401 de las llamadas comunes.
//   - Falla: el timer no avanza, el próximo trigger reintenta. Ningún estado
//     local se muta.
func (e *Engine) Sync(ctx context.Context, hardwareID string) Report {
	log := logger.FromWithFields(ctx, logger.Component("reconcile"), logger.HardwareID(hardwareID))

	if prev, ok := e.withinThrottle(hardwareID); ok {
		metrics.ReconcileTotal.WithLabelValues(string(OutcomeThrottled)).Inc()
		log.Debug("sync throttled, returning previous result")
		return Report{Outcome: OutcomeThrottled, Result: prev}
	}

	active := e.creds.Active()

	if err := e.dir.EnsureAll(ctx, active, e.creds.TokenFor); err != nil {
		metrics.ReconcileTotal.WithLabelValues(string(OutcomeSkipped)).Inc()
		log.Info("sync skipped: team mapping incomplete", logger.Err(err))
		return Report{Outcome: OutcomeSkipped, Err: err}
	}

	snapshots := make([]model.EnrollmentSnapshot, 0, len(active))
	for _, c := range active {
		snapshots = append(snapshots, model.EnrollmentSnapshot{
			TenantID:   c.TenantID,
			Role:       c.Role,
			TeamCodes:  append([]string(nil), c.TeamCodes...),
			HardwareID: hardwareID,
		})
	}

	result, err := e.client.SubmitEnrollmentSync(ctx, hardwareID, snapshots)
	if err != nil {
		metrics.ReconcileTotal.WithLabelValues(string(OutcomeFailed)).Inc()
		log.Warn("sync failed", logger.Err(err))
		return Report{Outcome: OutcomeFailed, Err: err}
	}

	result.LastSyncAt = e.nowFunc().UTC()
	e.mu.Lock()
	e.last[hardwareID] = lastSync{result: *result, at: result.LastSyncAt}
	e.mu.Unlock()

	metrics.ReconcileTotal.WithLabelValues(string(OutcomeSynced)).Inc()
	log.Info("sync done",
		logger.Count(len(snapshots)),
		logger.Any("revoked", result.RevokedCount),
		logger.Any("teams_removed", result.TeamsRemovedCount))
	return Report{Outcome: OutcomeSynced, Result: *result}
}

// withinThrottle devuelve el resultado previo si el último sync exitoso de
// este hardware id fue hace menos que la ventana.
func (e *Engine) withinThrottle(hardwareID string) (model.ReconciliationResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls, ok := e.last[hardwareID]
	if !ok {
		return model.ReconciliationResult{}, false
	}
	if e.nowFunc().Sub(ls.at) >= e.throttle {
		return model.ReconciliationResult{}, false
	}
	return ls.result, true
}
