package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidSelection возвращается при выборе изображения вне списка кандидатов.
var ErrInvalidSelection = errors.New("изображение не входит в список кандидатов")

// ErrEmptyPlatformSet возвращается при публикации без выбранных площадок.
var ErrEmptyPlatformSet = errors.New("не выбрана ни одна площадка")

// ErrPersistence возвращается при сбое долговременного хранилища.
var ErrPersistence = errors.New("сбой долговременного хранилища")

// ErrStaleRevision возвращается при слиянии правки с чужой рабочей копией.
var ErrStaleRevision = errors.New("правка относится к другой рабочей копии")

// ErrNotFound возвращается хранилищем при отсутствии ключа.
var ErrNotFound = errors.New("значение не найдено")

// GenerationErrorKind классифицирует сбои генеративных сервисов.
type GenerationErrorKind string

const (
	// KindQuotaExceeded исчерпана квота внешнего сервиса; повтор без вмешательства бесполезен.
	KindQuotaExceeded GenerationErrorKind = "quota_exceeded"
	// KindValidationFailure ответ не прошёл проверку схемы.
	KindValidationFailure GenerationErrorKind = "validation_failure"
	// KindTransportFailure сетевой сбой или недоступность сервиса; повтор безопасен.
	KindTransportFailure GenerationErrorKind = "transport_failure"
)

// GenerationError описывает сбой пайплайна генерации.
type GenerationError struct {
	Kind    GenerationErrorKind
	Message string
	Err     error
}

// Error реализует error.
func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap отдаёт исходную причину.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError создаёт ошибку генерации.
func NewGenerationError(kind GenerationErrorKind, message string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Err: err}
}

// AsGenerationError извлекает GenerationError из цепочки ошибок.
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}
