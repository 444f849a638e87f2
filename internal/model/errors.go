package model

import "errors"

var (
	// ErrInvalidRequest - отсутствуют или некорректны обязательные поля запроса.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound - сессия, сценарий или другая сущность не найдена.
	ErrNotFound = errors.New("resource not found")
	// ErrUpstreamFailure - ошибка вызова нарратора или хранилища.
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrStreamAborted - стрим нарратора оборвался до завершения.
	// Ход ассистента при этом не записывается.
	ErrStreamAborted = errors.New("narrator stream aborted")

	// Ошибки верификации токенов (используются middleware).
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("token is malformed")
)
