// Package remote define la frontera con el backend: la interfaz Client que
// consume el motor de sincronización, la taxonomía de errores y una
// implementación HTTP concreta.
package remote

import "errors"

// Sentinel errors de la frontera remota.
var (
	// ErrNetworkUnavailable señala que el backend no fue alcanzable.
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrUnauthorized señala token revocado o vencido para ese tenant.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidationFailed señala input rechazado por el backend.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNotFound señala recurso inexistente.
	ErrNotFound = errors.New("not found")
	// ErrServerError señala un 5xx del backend.
	ErrServerError = errors.New("server error")
	// ErrNoCachedData señala que no hay nada cacheado para mostrar.
	ErrNoCachedData = errors.New("no cached data")
)

// APIError envuelve un sentinel con detalle del backend.
type APIError struct {
	Kind   error  // uno de los sentinels de arriba
	Status int    // status HTTP, 0 si no aplica
	Detail string // mensaje del backend, puede ser vacío
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Kind.Error() + ": " + e.Detail
	}
	return e.Kind.Error()
}

func (e *APIError) Unwrap() error { return e.Kind }

// IsUnauthorized reporta si err corresponde a un token revocado/vencido.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsValidation reporta si err es un rechazo de validación.
func IsValidation(err error) bool { return errors.Is(err, ErrValidationFailed) }
