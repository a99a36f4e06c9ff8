// Package cache implementa el ContentCache stale-while-revalidate del motor.
//
// Soporta:
//   - Memory (in-process, default)
//   - Redis (sobrevive reinicios del proceso)
//
// Una entrada vencida no desaparece: Get la sigue devolviendo con
// isStale=true. Mostrar datos viejos es mejor que no mostrar nada; el
// coordinador decide cuándo refrescar.
package cache

import (
	"context"
	"time"
)

// Kind es el tipo de recurso cacheado.
type Kind string

const (
	KindShiftList         Kind = "shifts"
	KindLeaderboard       Kind = "leaderboard"
	KindGlobalLeaderboard Kind = "leaderboard_global"
)

// Key identifica una entrada: (tenant, recurso, parámetros). Hay a lo sumo
// una entrada por Key; Put sobreescribe.
type Key struct {
	TenantID string
	Kind     Kind
	Params   string // query params normalizados, puede ser vacío
}

// String arma la representación tenant/kind/params usada por los drivers.
func (k Key) String() string {
	s := k.TenantID + "/" + string(k.Kind)
	if k.Params != "" {
		s += "/" + k.Params
	}
	return s
}

// Store define las operaciones del ContentCache.
type Store interface {
	// Get retorna el payload y si está vencido. ok=false si no hay entrada.
	Get(ctx context.Context, key Key) (payload []byte, isStale bool, ok bool)

	// Put guarda un payload con el TTL dado. Sobreescribe.
	Put(ctx context.Context, key Key, payload []byte, ttl time.Duration)

	// Invalidate elimina una entrada. Se invoca tras cualquier mutación que
	// afecte ese tenant/recurso para forzar refresh en la próxima lectura.
	Invalidate(ctx context.Context, key Key)

	// InvalidateTenant elimina todas las entradas de un tenant (cascada al
	// borrar la credencial).
	InvalidateTenant(ctx context.Context, tenantID string)
}

// Config configuración para crear un Store.
type Config struct {
	Kind     string // "memory" | "redis"
	Addr     string // redis addr
	Password string
	DB       int
	Prefix   string
	// MaxEntries limita el driver de memoria; 0 = sin límite.
	MaxEntries int
}

// New crea un Store según la configuración.
func New(cfg Config) (Store, error) {
	switch cfg.Kind {
	case "redis":
		return NewRedis(cfg)
	case "memory", "":
		return NewMemory(cfg.MaxEntries), nil
	default:
		return NewMemory(cfg.MaxEntries), nil
	}
}
