package service

import "errors"

// Ошибки, которые сервис возвращает наружу. Обработчики HTTP сопоставляют их
// с кодами ответа.
var (
	ErrSystemUninitialized  = errors.New("system is not initialized")
	ErrAlreadyInitialized   = errors.New("admin account already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrDuplicateOrderNumber = errors.New("a claim with this order number already exists")
	ErrInvalidInput         = errors.New("invalid input")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrPersistenceFailure   = errors.New("persistence failure")
)
