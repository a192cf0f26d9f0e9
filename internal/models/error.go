package models

import "errors"

// ErrNotFound se retorna cuando un registro no existe en el almacén
var ErrNotFound = errors.New("not found")

// ErrorCode representa el código de error
type ErrorCode string

const (
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeConflict       ErrorCode = "CONFLICT"
	ErrorCodeUpstream       ErrorCode = "UPSTREAM_FAILURE"
	ErrorCodeInternal       ErrorCode = "INTERNAL"
)

// ErrorDetail representa un detalle específico del error
type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ErrorResponse representa la respuesta de error estandarizada
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo representa la información del error
type ErrorInfo struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Stage   string        `json:"stage,omitempty"`
	Details []ErrorDetail `json:"details,omitempty"`
}

func newErrorResponse(code ErrorCode, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    string(code),
			Message: message,
		},
	}
}

// NewValidationError crea un error de validación con detalles
func NewValidationError(message string, details []ErrorDetail) ErrorResponse {
	resp := newErrorResponse(ErrorCodeInvalidRequest, message)
	resp.Error.Details = details
	return resp
}

// NewConflictError crea un error de conflicto (número de factura reservado)
func NewConflictError(message string) ErrorResponse {
	return newErrorResponse(ErrorCodeConflict, message)
}

// NewUnauthorizedError crea un error de identidad ausente
func NewUnauthorizedError(message string) ErrorResponse {
	return newErrorResponse(ErrorCodeUnauthorized, message)
}

// NewNotFoundError crea un error de recurso no encontrado
func NewNotFoundError(message string) ErrorResponse {
	return newErrorResponse(ErrorCodeNotFound, message)
}

// NewUpstreamError crea un error de un colaborador externo, indicando la etapa
func NewUpstreamError(message, stage string) ErrorResponse {
	resp := newErrorResponse(ErrorCodeUpstream, message)
	resp.Error.Stage = stage
	return resp
}

// NewInternalError crea un error interno del servidor
func NewInternalError(message string) ErrorResponse {
	return newErrorResponse(ErrorCodeInternal, message)
}
