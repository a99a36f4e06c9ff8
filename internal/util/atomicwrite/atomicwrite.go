// Package atomicwrite escribe archivos de estado del dispositivo (credenciales
// selladas, hardware id) sin dejar nunca una versión a medias en disco.
package atomicwrite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFile escribe data a path de forma que un corte a mitad de escritura
// deja o bien el contenido anterior o bien el nuevo, nunca una mezcla: se
// escribe un temporal con los permisos finales en el mismo directorio, se
// sincroniza, y recién entonces se renombra sobre el destino. Después del
// rename se sincroniza también el directorio para que el rename sobreviva
// un corte de energía.
func WriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	// mismo directorio que el destino: el rename no puede cruzar filesystems
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	// permisos antes de escribir: el contenido sellado nunca queda legible
	// por otros ni siquiera en el temporal
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Windows: rename sobre un destino existente o bloqueado puede
		// fallar; remove+rename como segundo intento
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}
	committed = true

	syncDir(dir)
	return nil
}

// syncDir hace fsync del directorio para persistir la entrada renombrada.
// Algunos filesystems no lo soportan sobre directorios; se ignora.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
