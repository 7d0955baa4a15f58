package response

type Response struct {
	Data          any    `json:"data,omitempty"`
	Success       bool   `json:"success"`
	StatusMessage string `json:"status_message"`
}

func Ok(data any) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
	}
}
