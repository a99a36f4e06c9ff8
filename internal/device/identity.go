// Package device maneja la identidad estable del dispositivo: un UUID
// acuñado una vez y reutilizado en cada reconciliación, de modo que todas
// las inscripciones del aparato queden ligadas entre sí.
package device

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldcrew/crewsync/internal/util/atomicwrite"
)

// LoadOrCreateHardwareID lee el hardware id persistido o acuña uno nuevo.
// El archivo contiene solo el UUID en texto plano.
func LoadOrCreateHardwareID(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(b))
		if _, perr := uuid.Parse(id); perr == nil {
			return id, nil
		}
		// archivo corrupto: re-acuñar en vez de fallar para siempre
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read hardware id: %w", err)
	}

	id := uuid.NewString()
	if err := atomicwrite.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("persist hardware id: %w", err)
	}
	return id, nil
}
