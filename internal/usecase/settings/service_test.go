package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"smm-studio/internal/domain"
)

type memoryKV struct {
	data    map[string][]byte
	failSet bool
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte) error {
	if m.failSet {
		return errors.New("хранилище недоступно")
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func TestLoadWithoutSavedProfile(t *testing.T) {
	service := NewService(newMemoryKV(), zerolog.Nop())
	if err := service.Load(context.Background()); err != nil {
		t.Fatalf("отсутствие ключа не ошибка: %v", err)
	}
	if service.Current().CompanyName == "" {
		t.Fatalf("без сохранённого профиля действует профиль по умолчанию")
	}
}

func TestUpdatePersistsProfile(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	service := NewService(kv, zerolog.Nop())

	next := domain.DefaultCompanySettings()
	next.CompanyName = "Студия Света"
	if err := service.Update(ctx, next); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if service.Current().CompanyName != "Студия Света" {
		t.Fatalf("профиль в памяти не обновился")
	}

	restored := NewService(kv, zerolog.Nop())
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if restored.Current().CompanyName != "Студия Света" {
		t.Fatalf("профиль должен переживать перезапуск")
	}
}

func TestUpdateRollbackOnPersistFailure(t *testing.T) {
	kv := newMemoryKV()
	service := NewService(kv, zerolog.Nop())
	before := service.Current()

	kv.failSet = true
	next := before
	next.CompanyName = "Другая компания"
	err := service.Update(context.Background(), next)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("ожидали ErrPersistence, получили %v", err)
	}
	if service.Current().CompanyName != before.CompanyName {
		t.Fatalf("при сбое записи профиль откатывается")
	}
}

func TestLoadRejectsCorruptedProfile(t *testing.T) {
	kv := newMemoryKV()
	kv.data[settingsKey] = []byte("не json")
	service := NewService(kv, zerolog.Nop())

	if err := service.Load(context.Background()); err == nil {
		t.Fatalf("битый профиль должен давать ошибку")
	}
}
