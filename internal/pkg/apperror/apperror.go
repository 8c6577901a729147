package apperror

import "maps"

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Code    int            // HTTP Status Code (e.g., 400, 404)
	Message string         // User-facing error message
	Err     error          // The underlying error, if any (not exposed to user)
	Fields  map[string]any // Extra user-facing fields merged into the error body
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code and message.
// This lets errors.Is match a sentinel after WithField returns a copy of it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithField returns a copy of the error carrying an additional response field.
// Sentinels are shared, so the receiver is never mutated.
func (e *AppError) WithField(key string, value any) *AppError {
	fields := make(map[string]any, len(e.Fields)+1)
	maps.Copy(fields, e.Fields)
	fields[key] = value

	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Fields:  fields,
	}
}
