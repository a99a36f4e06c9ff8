package model

// Period es la ventana temporal de un ranking.
type Period string

const (
	PeriodMonth  Period = "month"
	PeriodSeason Period = "season"
	PeriodAll    Period = "all"
)

// LeaderboardEntry una fila del ranking de un tenant.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	TeamID string `json:"team_id,omitempty"`
	Points int    `json:"points"`
}

// LeaderboardPayload ranking dentro de un tenant.
type LeaderboardPayload struct {
	TenantID string             `json:"tenant_id"`
	Period   Period             `json:"period"`
	Entries  []LeaderboardEntry `json:"entries"`
}

// GlobalLeaderboardPayload ranking entre tenants (liga global).
type GlobalLeaderboardPayload struct {
	Period  Period             `json:"period"`
	Entries []LeaderboardEntry `json:"entries"`
}

// TeamMeta metadatos resueltos para un código de equipo. La reconciliación
// exige tener TeamMeta para cada equipo inscripto antes de enviar nada.
type TeamMeta struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	TenantID string `json:"tenant_id"`
}
