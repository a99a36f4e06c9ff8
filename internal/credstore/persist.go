package credstore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/security/seal"
	"github.com/fieldcrew/crewsync/internal/util/atomicwrite"
)

// FilePersister guarda la lista completa de credenciales como un único
// documento YAML escrito atómicamente. Los tokens van sellados en reposo.
type FilePersister struct {
	Path string
	// SealTokens desactivable solo para entornos de test sin clave maestra.
	SealTokens bool
}

// NewFilePersister crea un persister con sellado de tokens activado.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path, SealTokens: true}
}

type persistedFile struct {
	Version     int                      `yaml:"version"`
	Credentials []model.TenantCredential `yaml:"credentials"`
}

func (p *FilePersister) Load() ([]model.TenantCredential, error) {
	b, err := os.ReadFile(p.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.Path, err)
	}

	var doc persistedFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", p.Path, err)
	}

	if p.SealTokens {
		for i, c := range doc.Credentials {
			token, err := seal.Decrypt(c.AuthToken)
			if err != nil {
				return nil, fmt.Errorf("unseal token for %s: %w", c.TenantID, err)
			}
			doc.Credentials[i].AuthToken = token
		}
	}
	return doc.Credentials, nil
}

func (p *FilePersister) Store(list []model.TenantCredential) error {
	out := make([]model.TenantCredential, len(list))
	copy(out, list)

	if p.SealTokens {
		for i, c := range out {
			sealed, err := seal.Encrypt(c.AuthToken)
			if err != nil {
				return fmt.Errorf("seal token for %s: %w", c.TenantID, err)
			}
			out[i].AuthToken = sealed
		}
	}

	b, err := yaml.Marshal(persistedFile{Version: 1, Credentials: out})
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	return atomicwrite.WriteFile(p.Path, b, 0o600)
}

var _ Persister = (*FilePersister)(nil)
