package model

import "time"

// ShiftStatus estado de un turno publicado.
type ShiftStatus string

const (
	ShiftOpen      ShiftStatus = "open"
	ShiftFull      ShiftStatus = "full"
	ShiftCancelled ShiftStatus = "cancelled"
)

// ShiftRecord es un turno de voluntariado tal como lo publica un tenant.
// El ID es globalmente único; el resultado de un merge multi-tenant
// contiene exactamente un registro por ID.
type ShiftRecord struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenant_id"`
	TeamID      string      `json:"team_id,omitempty"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Status      ShiftStatus `json:"status"`
	Location    string      `json:"location"`
	Volunteers  []string    `json:"volunteers"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
	MinimumCrew int         `json:"minimum_crew,omitempty"`
}

// HasVolunteer reporta si name ya está anotado en el turno.
func (s ShiftRecord) HasVolunteer(name string) bool {
	for _, v := range s.Volunteers {
		if v == name {
			return true
		}
	}
	return false
}
