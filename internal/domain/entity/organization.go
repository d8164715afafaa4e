package entity

import "time"

// Estados de una organización.
const (
	OrganizationActive    = "active"
	OrganizationSuspended = "suspended"
	OrganizationInactive  = "inactive"
)

// Organization representa un tenant del sistema: frontera de facturación y de acceso.
// Es dueña de una suscripción, de las membresías y de las activaciones de módulos.
type Organization struct {
	ID        string
	Name      string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
