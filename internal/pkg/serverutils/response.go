package serverutils

import "cv-evaluator-be/internal/entity"

type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// MessageBody is a success envelope without data.
type MessageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorBody is the failure envelope: {success:false, error, code?, promptInfo?}.
type ErrorBody struct {
	Success    bool               `json:"success"`
	Error      string             `json:"error"`
	Code       string             `json:"code,omitempty"`
	PromptInfo *entity.PromptInfo `json:"promptInfo,omitempty"`
}

func SuccessResponse[T any](message string, data T) *BaseResponse[T] {
	return &BaseResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func MessageResponse(message string) *MessageBody {
	return &MessageBody{
		Success: true,
		Message: message,
	}
}

func ErrorResponse(code string, message string) *ErrorBody {
	return &ErrorBody{
		Success: false,
		Error:   message,
		Code:    code,
	}
}
