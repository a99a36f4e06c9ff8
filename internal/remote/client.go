package remote

import (
	"context"

	"github.com/fieldcrew/crewsync/internal/model"
)

// TenantToken es un token de autorización ligado a un tenant específico.
// Todas las operaciones remotas lo exigen como argumento explícito: no hay
// token ambiente ni global, y el tipo impide pasar un string suelto.
type TenantToken struct {
	TenantID string
	Value    string
}

// FetchWindow ventana de días hacia atrás y adelante para el listado de turnos.
type FetchWindow struct {
	PastDays   int
	FutureDays int
}

// DefaultWindow es la ventana que usa el coordinador salvo override.
var DefaultWindow = FetchWindow{PastDays: 365, FutureDays: 60}

// Client es la frontera con el backend. El núcleo solo la consume; la
// implementación HTTP vive en este paquete y los tests usan dobles.
type Client interface {
	FetchShiftList(ctx context.Context, tok TenantToken, win FetchWindow) ([]model.ShiftRecord, error)
	AddVolunteer(ctx context.Context, tok TenantToken, recordID, name string) (*model.ShiftRecord, error)
	RemoveVolunteer(ctx context.Context, tok TenantToken, recordID, name string) (*model.ShiftRecord, error)
	FetchLeaderboard(ctx context.Context, tok TenantToken, period model.Period, teamID string) (*model.LeaderboardPayload, error)
	FetchGlobalLeaderboard(ctx context.Context, tok TenantToken, period model.Period, teamID string) (*model.GlobalLeaderboardPayload, error)
	FetchTeamMeta(ctx context.Context, tok TenantToken, teamCode string) (*model.TeamMeta, error)
	SubmitEnrollmentSync(ctx context.Context, hardwareID string, snapshots []model.EnrollmentSnapshot) (*model.ReconciliationResult, error)
}
