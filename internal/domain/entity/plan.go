package entity

import "github.com/shopspring/decimal"

// Plan es un nivel de suscripción con sus techos de recursos. Dato de referencia inmutable.
type Plan struct {
	Code         string
	Name         string
	MaxModules   int
	MaxBranches  int
	MaxUsers     int
	MonthlyPrice decimal.Decimal // informativo; el motor no calcula cobros
}

// PlanLimits es la parte del plan que viaja en el contexto de permisos.
type PlanLimits struct {
	PlanCode    string `json:"plan_code"`
	MaxModules  int    `json:"max_modules"`
	MaxBranches int    `json:"max_branches"`
	MaxUsers    int    `json:"max_users"`
}

// Limits devuelve los límites del plan.
func (p Plan) Limits() PlanLimits {
	return PlanLimits{
		PlanCode:    p.Code,
		MaxModules:  p.MaxModules,
		MaxBranches: p.MaxBranches,
		MaxUsers:    p.MaxUsers,
	}
}
