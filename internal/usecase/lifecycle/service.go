package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smm-studio/internal/domain"
	"smm-studio/internal/infra/metrics"
)

// Ключи коллекций в долговременном хранилище: одна коллекция — один ключ.
const (
	draftsKey    = "drafts"
	scheduledKey = "scheduled_posts"
	publishedKey = "published_posts"
)

// Store владеет тремя коллекциями жизненного цикла. Все записи проходят
// через его команды; каждая мутация сразу персистится, при сбое записи
// изменение в памяти откатывается.
type Store struct {
	kv  domain.KV
	log zerolog.Logger

	mu        sync.Mutex
	drafts    []domain.Draft
	scheduled []domain.ScheduledPost
	published []domain.PublishedPost
}

var _ domain.LifecycleStore = (*Store)(nil)

// NewStore создаёт хранилище жизненного цикла.
func NewStore(kv domain.KV, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// Load читает коллекции из хранилища. Отсутствие ключей не ошибка.
func (s *Store) Load(ctx context.Context) error {
	drafts, err := loadCollection[domain.Draft](ctx, s.kv, draftsKey)
	if err != nil {
		return err
	}
	scheduled, err := loadCollection[domain.ScheduledPost](ctx, s.kv, scheduledKey)
	if err != nil {
		return err
	}
	published, err := loadCollection[domain.PublishedPost](ctx, s.kv, publishedKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = drafts
	s.scheduled = scheduled
	s.published = published
	s.log.Info().Int("drafts", len(drafts)).Int("scheduled", len(scheduled)).Int("published", len(published)).Msg("коллекции загружены")
	return nil
}

// SaveDraft делает upsert черновика по ID контента: существующий черновик
// заменяется на месте, новый добавляется в конец.
func (s *Store) SaveDraft(ctx context.Context, content domain.GeneratedContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]domain.Draft(nil), s.drafts...)
	replaced := false
	for i := range next {
		if next[i].ID == content.ID {
			next[i] = content.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, content.Clone())
	}

	prev := s.drafts
	s.drafts = next
	if err := s.persist(ctx, draftsKey, next); err != nil {
		s.drafts = prev
		metrics.ObserveLifecycleMutation("drafts", err)
		return err
	}
	metrics.ObserveLifecycleMutation("drafts", nil)
	return nil
}

// Schedule вставляет пост в расписание с сохранением сортировки по дате.
// При равных датах сохраняется порядок вставки.
func (s *Store) Schedule(ctx context.Context, content domain.GeneratedContent, when time.Time, platforms []domain.Platform) (domain.ScheduledPost, error) {
	if len(platforms) == 0 {
		metrics.ObserveLifecycleMutation("scheduled", domain.ErrEmptyPlatformSet)
		return domain.ScheduledPost{}, domain.ErrEmptyPlatformSet
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := domain.ScheduledPost{
		ID:            uuid.NewString(),
		Content:       content.Clone(),
		ScheduledDate: when.UTC(),
		Platforms:     append([]domain.Platform(nil), platforms...),
	}
	next := append(append([]domain.ScheduledPost(nil), s.scheduled...), post)
	sort.SliceStable(next, func(i, j int) bool { return next[i].ScheduledDate.Before(next[j].ScheduledDate) })

	prev := s.scheduled
	s.scheduled = next
	if err := s.persist(ctx, scheduledKey, next); err != nil {
		s.scheduled = prev
		metrics.ObserveLifecycleMutation("scheduled", err)
		return domain.ScheduledPost{}, err
	}
	metrics.ObserveLifecycleMutation("scheduled", nil)
	return post.Clone(), nil
}

// Publish фиксирует публикацию: новая запись встаёт в начало последовательности.
func (s *Store) Publish(ctx context.Context, content domain.GeneratedContent, platforms []domain.Platform) (domain.PublishedPost, error) {
	if len(platforms) == 0 {
		metrics.ObserveLifecycleMutation("published", domain.ErrEmptyPlatformSet)
		return domain.PublishedPost{}, domain.ErrEmptyPlatformSet
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := domain.PublishedPost{
		ID:            uuid.NewString(),
		Content:       content.Clone(),
		PublishedDate: time.Now().UTC(),
		Platforms:     append([]domain.Platform(nil), platforms...),
	}
	next := append([]domain.PublishedPost{post}, s.published...)

	prev := s.published
	s.published = next
	if err := s.persist(ctx, publishedKey, next); err != nil {
		s.published = prev
		metrics.ObserveLifecycleMutation("published", err)
		return domain.PublishedPost{}, err
	}
	metrics.ObserveLifecycleMutation("published", nil)
	return post.Clone(), nil
}

// Drafts возвращает копию набора черновиков.
func (s *Store) Drafts() []domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Draft, 0, len(s.drafts))
	for _, d := range s.drafts {
		out = append(out, d.Clone())
	}
	return out
}

// Scheduled возвращает копию расписания.
func (s *Store) Scheduled() []domain.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScheduledPost, 0, len(s.scheduled))
	for _, p := range s.scheduled {
		out = append(out, p.Clone())
	}
	return out
}

// Published возвращает копию последовательности публикаций.
func (s *Store) Published() []domain.PublishedPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PublishedPost, 0, len(s.published))
	for _, p := range s.published {
		out = append(out, p.Clone())
	}
	return out
}

// DueBefore возвращает посты, чей срок публикации наступил.
func (s *Store) DueBefore(now time.Time) []domain.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ScheduledPost
	for _, p := range s.scheduled {
		if !p.ScheduledDate.After(now) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// PublishScheduled переносит запланированный пост в публикации. Публикация
// пишется первой: при падении на удалении из расписания пост не теряется,
// обе коллекции откатываются.
func (s *Store) PublishScheduled(ctx context.Context, scheduledID string) (domain.PublishedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.scheduled {
		if s.scheduled[i].ID == scheduledID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.PublishedPost{}, fmt.Errorf("запланированный пост %s: %w", scheduledID, domain.ErrNotFound)
	}

	src := s.scheduled[idx]
	post := domain.PublishedPost{
		ID:            uuid.NewString(),
		Content:       src.Content.Clone(),
		PublishedDate: time.Now().UTC(),
		Platforms:     append([]domain.Platform(nil), src.Platforms...),
	}

	prevPublished := s.published
	prevScheduled := s.scheduled

	s.published = append([]domain.PublishedPost{post}, s.published...)
	if err := s.persist(ctx, publishedKey, s.published); err != nil {
		s.published = prevPublished
		metrics.ObserveLifecycleMutation("published", err)
		return domain.PublishedPost{}, err
	}

	next := append([]domain.ScheduledPost(nil), s.scheduled[:idx]...)
	next = append(next, s.scheduled[idx+1:]...)
	s.scheduled = next
	if err := s.persist(ctx, scheduledKey, next); err != nil {
		s.published = prevPublished
		s.scheduled = prevScheduled
		_ = s.persist(ctx, publishedKey, prevPublished)
		metrics.ObserveLifecycleMutation("scheduled", err)
		return domain.PublishedPost{}, err
	}

	metrics.PublishedByScheduler.Inc()
	return post.Clone(), nil
}

func (s *Store) persist(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: сериализация %s: %v", domain.ErrPersistence, key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("%w: запись %s: %v", domain.ErrPersistence, key, err)
	}
	return nil
}

func loadCollection[T any](ctx context.Context, kv domain.KV, key string) ([]T, error) {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", key, err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", key, err)
	}
	return out, nil
}
