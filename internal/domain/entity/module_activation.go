package entity

import "time"

// Estados de una fila del ledger de activaciones.
const (
	ActivationActive   = "active"
	ActivationInactive = "inactive"
)

// ModuleActivation es la fila del ledger de activaciones, única por (OrganizationID, ModuleCode).
// Solo el motor de activación la crea o modifica.
type ModuleActivation struct {
	ID             string
	OrganizationID string
	ModuleCode     ModuleCode
	Status         string // active, inactive
	ActivatedAt    time.Time
	ActivatedBy    string
	DeactivatedAt  *time.Time
	DeactivatedBy  string
}

// IsActive informa si la fila cuenta como módulo activo.
func (a *ModuleActivation) IsActive() bool {
	return a != nil && a.Status == ActivationActive
}
