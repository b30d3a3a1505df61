package models

import "errors"

// ドメインエラー。いずれも呼び出し側の誤りであり再試行しても解消しない
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidTemplate      = errors.New("invalid template")
	ErrOutOfOrderTransition = errors.New("out of order transition")
	ErrUnresolvedFeedback   = errors.New("unresolved feedback")
	ErrNotFound             = errors.New("not found")
	ErrNotAllowed           = errors.New("not allowed")
)
