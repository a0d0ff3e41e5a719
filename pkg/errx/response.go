package errx

import "errors"

// Response is the body rendered for a failed request.
type Response struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	Type      string         `json:"type"`
	Status    int            `json:"status"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse renders err. Errors that are not *Error become a generic
// internal error so causes never reach the client.
func ToResponse(err error) Response {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal("internal server error")
	}
	return Response{
		Error:   e.Message,
		Code:    e.Code,
		Type:    string(e.Type),
		Status:  e.HTTPStatus,
		Details: e.Details,
	}
}
