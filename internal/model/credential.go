package model

import "time"

// Role es el rol del dispositivo dentro de un tenant.
type Role string

const (
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// Valid reporta si el rol es uno de los conocidos.
func (r Role) Valid() bool { return r == RoleManager || r == RoleMember }

// CredentialStatus describe el estado de una inscripción.
type CredentialStatus string

const (
	StatusActive      CredentialStatus = "active"
	StatusSeasonEnded CredentialStatus = "season_ended"
	StatusRevoked     CredentialStatus = "revoked"
)

// TenantCredential asocia este dispositivo con un tenant: token de
// autorización, rol y los códigos de equipo inscritos. Hay a lo sumo una
// credencial por tenant.
type TenantCredential struct {
	TenantID  string           `yaml:"tenant_id"`
	Role      Role             `yaml:"role"`
	TeamCodes []string         `yaml:"team_codes"`
	AuthToken string           `yaml:"auth_token"`
	Status    CredentialStatus `yaml:"status"`
	UpdatedAt time.Time        `yaml:"updated_at"`
}

// Active reporta si la credencial participa del fan-out de fetches.
func (c TenantCredential) Active() bool { return c.Status == StatusActive }

// EnrollmentSnapshot es la declaración efímera de una inscripción que se
// envía al backend durante la reconciliación. Se construye por llamada,
// nunca se persiste.
type EnrollmentSnapshot struct {
	TenantID   string
	Role       Role
	TeamCodes  []string
	HardwareID string
}

// ReconciliationResult es el resumen que devuelve el backend tras un
// intercambio de reconciliación.
type ReconciliationResult struct {
	Synced            bool
	RevokedCount      int
	TeamsRemovedCount int
	LastSyncAt        time.Time
}
