package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// AppError несет HTTP-статус вместе с сообщением, чтобы обработчики
// могли вернуть ошибку одним вызовом RespondError
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewValidationError - некорректный или выходящий за границы ввод, состояние не изменено
func NewValidationError(message string) *AppError {
	return &AppError{Status: fiber.StatusUnprocessableEntity, Message: message}
}

// NewFailedPrecondition - операция недопустима при текущем состоянии
func NewFailedPrecondition(message string) *AppError {
	return &AppError{Status: fiber.StatusConflict, Message: message}
}

// NewNotFound - сущность не существует
func NewNotFound(message string) *AppError {
	return &AppError{Status: fiber.StatusNotFound, Message: message}
}

// NewForbidden - несоответствие роли или владельца
func NewForbidden(message string) *AppError {
	return &AppError{Status: fiber.StatusForbidden, Message: message}
}

// RespondError пишет ошибку приложения в JSON-ответ; неизвестные ошибки
// считаются внутренними
func RespondError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return Error(c, appErr.Status, appErr)
	}
	return Error(c, fiber.StatusInternalServerError, err)
}
