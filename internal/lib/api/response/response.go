package response

const (
	StatusOk    = "success"
	StatusError = "error"
)

// Response is the envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Ok(data any) Response {
	return Response{
		Success: true,
		Status:  StatusOk,
		Data:    data,
	}
}

func Error(msg string) Response {
	return Response{
		Success: false,
		Status:  StatusError,
		Message: msg,
	}
}
