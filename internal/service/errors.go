package service

// FieldError names a single invalid or missing input field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError reports malformed, missing or out-of-range input. It is
// raised before any mutation, so a failed call never leaves partial writes.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newFieldValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Message: field + " " + message,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// NotFoundError reports a missing invoice or attachment
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}
