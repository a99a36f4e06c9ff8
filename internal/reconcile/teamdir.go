package reconcile

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/observability/logger"
	"github.com/fieldcrew/crewsync/internal/remote"
)

// TeamDirectory resuelve códigos de equipo a metadatos y cachea los aciertos
// por sesión. La reconciliación exige el mapeo completo antes de enviar nada.
type TeamDirectory struct {
	client remote.Client
	cache  *gocache.Cache
}

// NewTeamDirectory crea el directorio. Los metadatos viven lo que dura la
// sesión (TTL largo, limpieza perezosa).
func NewTeamDirectory(client remote.Client) *TeamDirectory {
	return &TeamDirectory{
		client: client,
		cache:  gocache.New(12*time.Hour, time.Hour),
	}
}

func dirKey(tenantID, code string) string { return tenantID + "/" + code }

// Resolve retorna los metadatos del equipo, de cache si ya se resolvieron
// en esta sesión.
func (d *TeamDirectory) Resolve(ctx context.Context, tok remote.TenantToken, code string) (*model.TeamMeta, error) {
	if v, ok := d.cache.Get(dirKey(tok.TenantID, code)); ok {
		meta := v.(model.TeamMeta)
		return &meta, nil
	}
	meta, err := d.client.FetchTeamMeta(ctx, tok, code)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(dirKey(tok.TenantID, code), *meta)
	return meta, nil
}

// EnsureAll garantiza que el mapeo código→metadatos existe para cada equipo
// de cada credencial dada. Devuelve error ante el primer equipo irresoluble:
// el caller debe abortar la reconciliación completa, nunca mandar parcial.
func (d *TeamDirectory) EnsureAll(ctx context.Context, creds []model.TenantCredential, tokenFor func(string) (remote.TenantToken, error)) error {
	for _, c := range creds {
		tok, err := tokenFor(c.TenantID)
		if err != nil {
			return fmt.Errorf("token for %s: %w", c.TenantID, err)
		}
		for _, code := range c.TeamCodes {
			if _, err := d.Resolve(ctx, tok, code); err != nil {
				logger.From(ctx).Warn("team metadata unresolved",
					logger.TenantID(c.TenantID), logger.TeamCode(code), logger.Err(err))
				return fmt.Errorf("resolve team %s/%s: %w", c.TenantID, code, err)
			}
		}
	}
	return nil
}
