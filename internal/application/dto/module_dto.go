package dto

import "time"

// PlanSummary plan vigente en el estado de módulos.
type PlanSummary struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	MaxModules  int    `json:"max_modules"`
	MaxBranches int    `json:"max_branches"`
	MaxUsers    int    `json:"max_users"`
	IsDefault   bool   `json:"is_default"`
}

// ModuleStatusResponse salida de GET module-status.
type ModuleStatusResponse struct {
	OrganizationID string      `json:"organization_id"`
	ActiveModules  []string    `json:"active_modules"`
	Plan           PlanSummary `json:"plan"`
	Used           int         `json:"used"`
	Remaining      int         `json:"remaining"`
	Grandfathered  bool        `json:"grandfathered"`
}

// ModuleActivationResponse fila del ledger tras una activación/desactivación.
type ModuleActivationResponse struct {
	OrganizationID string     `json:"organization_id"`
	ModuleCode     string     `json:"module_code"`
	Status         string     `json:"status"`
	ActivatedAt    time.Time  `json:"activated_at"`
	ActivatedBy    string     `json:"activated_by"`
	DeactivatedAt  *time.Time `json:"deactivated_at,omitempty"`
	DeactivatedBy  string     `json:"deactivated_by,omitempty"`
}

// ModuleActionResult resultado de activate/deactivate. Los fallos de negocio viajan aquí
// (Success=false, Kind, Message) y nunca como error.
type ModuleActionResult struct {
	Success bool                      `json:"success"`
	Kind    string                    `json:"kind,omitempty"`
	Message string                    `json:"message"`
	Data    *ModuleActivationResponse `json:"data,omitempty"`
}

// ModuleResponse módulo del catálogo con sus requisitos y dependientes directos.
type ModuleResponse struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Requires   []string `json:"requires"`
	Dependents []string `json:"dependents"`
}
