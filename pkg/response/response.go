package response

import "backend/pkg/apperror"

// Response is the uniform envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success wraps data with a human-readable message.
func Success(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// Error wraps an error message. The client always receives a single string,
// never a structured field list.
func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// FromError builds the error envelope for a domain error.
func FromError(err error) Response {
	return Error(apperror.From(err).Message)
}
