package errx

import "net/http"

// Type categorizes an error and decides its default HTTP status.
type Type string

const (
	TypeInternal       Type = "INTERNAL"
	TypeValidation     Type = "VALIDATION"
	TypeAuthentication Type = "AUTHENTICATION"
	TypeAuthorization  Type = "AUTHORIZATION"
	TypeNotFound       Type = "NOT_FOUND"
	TypeConflict       Type = "CONFLICT"
	TypeGone           Type = "GONE"
	TypeBusiness       Type = "BUSINESS"
	TypeExternal       Type = "EXTERNAL"
)

func (t Type) String() string { return string(t) }

// Status returns the HTTP status conventionally used for the type.
func (t Type) Status() int {
	switch t {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeAuthentication:
		return http.StatusUnauthorized
	case TypeAuthorization:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeGone:
		return http.StatusGone
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
