package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"smm-studio/internal/domain"
)

const settingsKey = "company_settings"

// Service хранит профиль компании и синхронизирует его с хранилищем.
type Service struct {
	kv  domain.KV
	log zerolog.Logger

	mu      sync.RWMutex
	current domain.CompanySettings
}

// NewService создаёт сервис настроек с профилем по умолчанию.
func NewService(kv domain.KV, log zerolog.Logger) *Service {
	return &Service{kv: kv, log: log, current: domain.DefaultCompanySettings()}
}

// Load подтягивает сохранённый профиль; отсутствие ключа не ошибка.
func (s *Service) Load(ctx context.Context) error {
	data, err := s.kv.Get(ctx, settingsKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("чтение %s: %w", settingsKey, err)
	}
	var loaded domain.CompanySettings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("разбор %s: %w", settingsKey, err)
	}
	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return nil
}

// Current возвращает актуальный профиль.
func (s *Service) Current() domain.CompanySettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update заменяет профиль и персистит его; при сбое записи профиль
// в памяти откатывается.
func (s *Service) Update(ctx context.Context, next domain.CompanySettings) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: сериализация %s: %v", domain.ErrPersistence, settingsKey, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = next
	if err := s.kv.Set(ctx, settingsKey, data); err != nil {
		s.current = prev
		return fmt.Errorf("%w: запись %s: %v", domain.ErrPersistence, settingsKey, err)
	}
	s.log.Info().Str("company", next.CompanyName).Msg("профиль компании обновлён")
	return nil
}
