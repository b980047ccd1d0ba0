package serverutils

type BaseResponse[T any] struct {
	Success bool              `json:"success"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    T                 `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// ValidationErrorResponse carries one message per invalid field.
func ValidationErrorResponse(message string, fields map[string]string) BaseResponse[any] {
	return BaseResponse[any]{
		Success: false,
		Code:    422,
		Message: message,
		Errors:  fields,
	}
}
