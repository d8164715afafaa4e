package domain

import (
	"errors"
	"fmt"
)

// Kind clasifica los fallos del motor de autorización en categorías legibles por máquina.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindAuthentication    Kind = "authentication"
	KindAuthorization     Kind = "authorization"
	KindPlanLimitExceeded Kind = "plan_limit_exceeded"
	KindDependency        Kind = "dependency"
	KindTransient         Kind = "transient"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUnauthenticated   = errors.New("no es miembro de la organización")
	ErrForbidden         = errors.New("acceso denegado")
	ErrPlanLimitExceeded = errors.New("límite del plan excedido")
	ErrDependency        = errors.New("dependencia de módulo no satisfecha")
	ErrTransient         = errors.New("almacenamiento no disponible")
	ErrInvalidCatalog    = errors.New("catálogo inválido")
)

var sentinelByKind = map[Kind]error{
	KindNotFound:          ErrNotFound,
	KindAuthentication:    ErrUnauthenticated,
	KindAuthorization:     ErrForbidden,
	KindPlanLimitExceeded: ErrPlanLimitExceeded,
	KindDependency:        ErrDependency,
	KindTransient:         ErrTransient,
}

// RuleError es un fallo de regla de negocio esperado. Lleva un Kind para el llamador
// y un Message pensado para mostrarse al usuario tal cual.
type RuleError struct {
	Kind    Kind
	Message string
}

func (e *RuleError) Error() string { return e.Message }

// Is permite errors.Is(err, domain.ErrNotFound) sobre un *RuleError.
func (e *RuleError) Is(target error) bool {
	return sentinelByKind[e.Kind] == target
}

// NewRuleError construye un RuleError con mensaje formateado.
func NewRuleError(kind Kind, format string, args ...any) *RuleError {
	return &RuleError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsRuleError extrae el *RuleError de la cadena de err, si existe.
func AsRuleError(err error) (*RuleError, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Transient marca err como fallo de infraestructura (DB caída, timeout, circuito abierto).
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsTransient informa si err es un fallo de infraestructura reintentable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
