// Package xerrors provides the structured error system used across glovebox:
// every failure mode named in spec §7 is a (Domain, Code) pair that callers
// can match on without string comparison.
package xerrors

import (
	"errors"
	"fmt"
)

// Domain categorizes an error by subsystem.
type Domain string

// Code is a unique identifier within a Domain.
type Code string

const (
	DomainProfile   Domain = "profile"
	DomainLayout    Domain = "layout"
	DomainVariable  Domain = "variable"
	DomainTemplate  Domain = "template"
	DomainParse     Domain = "parse"
	DomainCache     Domain = "cache"
	DomainWorkspace Domain = "workspace"
	DomainContainer Domain = "container"
	DomainBuild     Domain = "build"
	DomainFlash     Domain = "flash"
	DomainCancel    Domain = "cancel"
)

// Error codes named by spec §7.
const (
	CodeConfigNotFound     Code = "config_not_found"
	CodeConfigInvalid      Code = "config_invalid"
	CodeFirmwareNotFound   Code = "firmware_not_found"
	CodeLayoutInvalid      Code = "layout_invalid"
	CodeUndefinedVariable  Code = "undefined_variable"
	CodeVariableCycle      Code = "variable_cycle"
	CodeTemplateRender     Code = "template_render_failed"
	CodeParseFailed        Code = "parse_failed"
	CodeCacheMiss          Code = "cache_miss"
	CodeCacheCorrupt       Code = "cache_corrupt"
	CodeCacheLocked        Code = "cache_locked"
	CodeWorkspaceWestInit  Code = "workspace_west_init"
	CodeWorkspaceWestUp    Code = "workspace_west_update"
	CodeWorkspaceCopy      Code = "workspace_copy"
	CodeContainerFailed    Code = "container_failed"
	CodeBuildFailed        Code = "build_failed"
	CodeFlashFailed        Code = "flash_failed"
	CodeFlashNotImplemented Code = "flash_not_implemented"
	CodeFlashNoDevice      Code = "flash_no_device"
	CodeCancelled          Code = "cancelled"
)

// Error is a structured error carrying a domain and code so callers can
// branch on failure kind (spec §7) instead of parsing messages.
type Error struct {
	Domain  Domain
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Is treats two *Error values as equal when domain and code match, so
// callers can do errors.Is(err, xerrors.ErrProfileNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Domain == t.Domain && e.Code == t.Code
}

// WithCause returns a copy of e with the given underlying cause attached.
func (e *Error) WithCause(cause error) *Error {
	n := *e
	n.cause = cause
	return &n
}

// WithMessage returns a copy of e with a replacement message.
func (e *Error) WithMessage(message string) *Error {
	n := *e
	n.Message = message
	return &n
}

// WithMessagef is WithMessage with fmt.Sprintf formatting.
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// New creates a new Error.
func New(domain Domain, code Code, message string) *Error {
	return &Error{Domain: domain, Code: code, Message: message}
}

// Wrap creates a new Error wrapping an existing error as its cause.
func Wrap(err error, domain Domain, code Code, message string) *Error {
	return &Error{Domain: domain, Code: code, Message: message, cause: err}
}

// GetCode returns the error code, or "" if err is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetDomain returns the error domain, or "" if err is not an *Error.
func GetDomain(err error) Domain {
	var e *Error
	if errors.As(err, &e) {
		return e.Domain
	}
	return ""
}

// Is delegates to errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }

// As delegates to errors.As.
func As(err error, target interface{}) bool { return errors.As(err, target) }
