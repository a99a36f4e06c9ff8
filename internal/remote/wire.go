package remote

import "github.com/fieldcrew/crewsync/internal/model"

// Wire DTOs del contrato de reconciliación. El resto de los endpoints
// devuelve los modelos tal cual (mismos tags JSON).

type wireEnrollment struct {
	TenantSlug         string   `json:"tenant_slug"`
	Role               string   `json:"role"`
	TeamCodes          []string `json:"team_codes"`
	HardwareIdentifier string   `json:"hardware_identifier"`
}

type syncRequest struct {
	Enrollments []wireEnrollment `json:"enrollments"`
}

type syncResponse struct {
	Synced         bool `json:"synced"`
	CleanupSummary struct {
		EnrollmentsRevoked int `json:"enrollments_revoked"`
		TeamsRemoved       int `json:"teams_removed"`
	} `json:"cleanup_summary"`
}

func buildSyncRequest(snapshots []model.EnrollmentSnapshot) syncRequest {
	req := syncRequest{Enrollments: make([]wireEnrollment, 0, len(snapshots))}
	for _, s := range snapshots {
		req.Enrollments = append(req.Enrollments, wireEnrollment{
			TenantSlug:         s.TenantID,
			Role:               string(s.Role),
			TeamCodes:          s.TeamCodes,
			HardwareIdentifier: s.HardwareID,
		})
	}
	return req
}

type volunteerRequest struct {
	RecordID string `json:"record_id"`
	Name     string `json:"name"`
}

type shiftListResponse struct {
	Shifts []model.ShiftRecord `json:"shifts"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
