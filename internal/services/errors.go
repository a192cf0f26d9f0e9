package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indica una precondición violada por el llamador
	ErrInvalidInput = errors.New("invalid input")
	// ErrRenderFailure indica que no se pudo producir el documento
	ErrRenderFailure = errors.New("render failure")
	// ErrNumberTaken indica que el número de factura ya está reservado
	ErrNumberTaken = errors.New("invoice number already reserved")
)

// ErrorKind clasifica los fallos de la emisión de facturas
type ErrorKind string

const (
	KindInvalidInput   ErrorKind = "invalid_input"
	KindConflict       ErrorKind = "conflict"
	KindCanceled       ErrorKind = "canceled"
	KindRenderFailure  ErrorKind = "render_failure"
	KindStorageFailure ErrorKind = "storage_failure"
	KindRecordFailure  ErrorKind = "record_failure"
	KindNotifyFailure  ErrorKind = "notify_failure"
)

// Entity identifica el registro afectado por un KindRecordFailure
type Entity string

const (
	EntityInvoice  Entity = "invoice"
	EntityFile     Entity = "file"
	EntityActivity Entity = "activity"
)

// IssueError describe en qué etapa falló la emisión y si la factura llegó a existir
type IssueError struct {
	Stage          Stage
	Kind           ErrorKind
	Entity         Entity
	InvoiceCreated bool
	Err            error
}

func (e *IssueError) Error() string {
	msg := fmt.Sprintf("invoice issuance failed at %s (%s", e.Stage, e.Kind)
	if e.Entity != "" {
		msg += " " + string(e.Entity)
	}
	msg += ")"
	if e.InvoiceCreated {
		msg += ", invoice created"
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *IssueError) Unwrap() error {
	return e.Err
}

// KindOf retorna la clase del error de emisión, o "" si no lo es
func KindOf(err error) ErrorKind {
	var issueErr *IssueError
	if errors.As(err, &issueErr) {
		return issueErr.Kind
	}
	return ""
}

// IsInvoiceCreated indica si, pese al error, la factura quedó registrada
func IsInvoiceCreated(err error) bool {
	var issueErr *IssueError
	if errors.As(err, &issueErr) {
		return issueErr.InvoiceCreated
	}
	return false
}
