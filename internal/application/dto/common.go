package dto

// ErrorResponse cuerpo de error HTTP. Code es estable para el front (NOT_FOUND, FORBIDDEN,
// MODULE_DISABLED, SERVICE_UNAVAILABLE...); Message se puede mostrar tal cual.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
