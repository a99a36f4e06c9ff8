package credstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fieldcrew/crewsync/internal/model"
)

// tokenExpiry lee el claim exp del token sin verificar la firma. La firma
// la valida el backend; acá solo interesa anticipar vencimientos.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ExpiringSoon lista las credenciales activas cuyo token vence dentro de
// window. Tokens opacos (no JWT) se omiten: su vencimiento solo lo conoce
// el backend vía 401.
func (s *Store) ExpiringSoon(window time.Duration) []model.TenantCredential {
	deadline := time.Now().Add(window)
	var out []model.TenantCredential
	for _, c := range s.Active() {
		exp, ok := tokenExpiry(c.AuthToken)
		if !ok {
			continue
		}
		if exp.Before(deadline) {
			out = append(out, c)
		}
	}
	return out
}
