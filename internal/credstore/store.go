// Package credstore mantiene la credencial de cada tenant inscripto en este
// dispositivo: token, rol, equipos y estado. Única fuente de tokens para
// las operaciones remotas.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/observability/logger"
	"github.com/fieldcrew/crewsync/internal/remote"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidCredential  = errors.New("invalid credential")
)

// Invalidator es lo que el store necesita del cache para cascadear la
// invalidación al borrar un tenant. Lo implementa cache.Store.
type Invalidator interface {
	InvalidateTenant(ctx context.Context, tenantID string)
}

// Persister guarda y carga la lista completa de credenciales bajo una única
// clave conocida, de forma atómica. Nunca hay updates parciales de campos.
type Persister interface {
	Load() ([]model.TenantCredential, error)
	Store([]model.TenantCredential) error
}

// Store es el TenantCredentialStore. Escrituras serializadas con mu;
// lecturas concurrentes permitidas.
type Store struct {
	mu          sync.RWMutex
	creds       map[string]model.TenantCredential
	persist     Persister   // opcional
	invalidator Invalidator // opcional
}

// Option configura el Store.
type Option func(*Store)

// WithPersister habilita persistencia atómica de la lista completa.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persist = p }
}

// WithInvalidator conecta el cache para la invalidación en cascada.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Store) { s.invalidator = inv }
}

// New crea el store y, si hay persister, carga el estado guardado.
func New(opts ...Option) (*Store, error) {
	s := &Store{creds: make(map[string]model.TenantCredential)}
	for _, opt := range opts {
		opt(s)
	}
	if s.persist != nil {
		list, err := s.persist.Load()
		if err != nil {
			return nil, fmt.Errorf("credstore: load persisted state: %w", err)
		}
		for _, c := range list {
			s.creds[c.TenantID] = c
		}
	}
	return s, nil
}

// Upsert inserta o reemplaza la credencial por tenantID.
func (s *Store) Upsert(ctx context.Context, cred model.TenantCredential) error {
	if cred.TenantID == "" || cred.AuthToken == "" || !cred.Role.Valid() {
		return ErrInvalidCredential
	}
	if cred.Status == "" {
		cred.Status = model.StatusActive
	}
	cred.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.TenantID] = cred
	return s.flushLocked(ctx)
}

// Remove borra la credencial y cascadea la invalidación del cache de ese
// tenant. Idempotente.
func (s *Store) Remove(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	_, existed := s.creds[tenantID]
	delete(s.creds, tenantID)
	err := s.flushLocked(ctx)
	s.mu.Unlock()

	if existed && s.invalidator != nil {
		s.invalidator.InvalidateTenant(ctx, tenantID)
	}
	return err
}

// TokenFor retorna el token ligado al tenant. Es el único camino para
// obtener un token: las llamadas remotas exigen remote.TenantToken, nunca
// un string suelto ni un token "primario" compartido.
func (s *Store) TokenFor(tenantID string) (remote.TenantToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[tenantID]
	if !ok {
		return remote.TenantToken{}, ErrCredentialNotFound
	}
	return remote.TenantToken{TenantID: tenantID, Value: c.AuthToken}, nil
}

// MarkRevoked transiciona el estado a revoked o season_ended. El tenant queda
// fuera del fan-out activo pero su cache se retiene (resumen offline de la
// temporada).
func (s *Store) MarkRevoked(ctx context.Context, tenantID string, status model.CredentialStatus) error {
	if status != model.StatusRevoked && status != model.StatusSeasonEnded {
		return fmt.Errorf("%w: status %q", ErrInvalidCredential, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creds[tenantID]
	if !ok {
		return ErrCredentialNotFound
	}
	if c.Status == status {
		return nil
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	s.creds[tenantID] = c

	logger.From(ctx).Info("credential status transition",
		logger.TenantID(tenantID), logger.String("status", string(status)))
	return s.flushLocked(ctx)
}

// Get retorna la credencial de un tenant.
func (s *Store) Get(tenantID string) (model.TenantCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[tenantID]
	if !ok {
		return model.TenantCredential{}, ErrCredentialNotFound
	}
	return c, nil
}

// All retorna todas las credenciales, orden estable por tenant.
func (s *Store) All() []model.TenantCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TenantCredential, 0, len(s.creds))
	for _, c := range s.creds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out
}

// Active retorna solo las credenciales que participan del fan-out.
func (s *Store) Active() []model.TenantCredential {
	all := s.All()
	out := all[:0]
	for _, c := range all {
		if c.Active() {
			out = append(out, c)
		}
	}
	return out
}

// flushLocked persiste el snapshot completo. Caller sostiene s.mu.
func (s *Store) flushLocked(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	list := make([]model.TenantCredential, 0, len(s.creds))
	for _, c := range s.creds {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TenantID < list[j].TenantID })

	if err := s.persist.Store(list); err != nil {
		logger.From(ctx).Error("credstore persist failed", logger.Err(err))
		return fmt.Errorf("credstore: persist: %w", err)
	}
	return nil
}
