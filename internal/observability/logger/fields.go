package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar de dominio. Usar siempre estos helpers en lugar de
// zap.String suelto para que los nombres queden consistentes en los logs.

// TenantID crea un campo para el ID del tenant.
func TenantID(v string) zap.Field {
	return zap.String("tenant_id", v)
}

// HardwareID crea un campo para el identificador del dispositivo.
func HardwareID(v string) zap.Field {
	return zap.String("hardware_id", v)
}

// ResourceKind crea un campo para el tipo de recurso cacheado.
func ResourceKind(v string) zap.Field {
	return zap.String("resource_kind", v)
}

// RecordID crea un campo para el ID de un turno.
func RecordID(v string) zap.Field {
	return zap.String("record_id", v)
}

// TeamCode crea un campo para un código de equipo.
func TeamCode(v string) zap.Field {
	return zap.String("team_code", v)
}

// Generation crea un campo para la generación de un fetch.
func Generation(v uint64) zap.Field {
	return zap.Uint64("generation", v)
}

// Campos estándar de sistema.

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Path crea un campo para el path de un request saliente.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Duration crea un campo para la duración de una operación.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Campos genéricos.

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Key crea un campo genérico para una clave de cache.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
