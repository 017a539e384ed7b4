package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"smm-studio/internal/domain"
)

type memoryKV struct {
	data    map[string][]byte
	failSet map[string]bool
	sets    int
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}, failSet: map[string]bool{}}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte) error {
	m.sets++
	if m.failSet[key] {
		return errors.New("хранилище недоступно")
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func content(id string) domain.GeneratedContent {
	return domain.GeneratedContent{
		ID: id,
		Post: domain.GeneratedPost{
			Type:  domain.PostTypeImage,
			Image: &domain.ImagePost{ImagePrompt: "промпт " + id, Caption: "подпись " + id},
		},
		ImageURLs:        []string{"data:image/png;base64," + id},
		SelectedImageURL: "data:image/png;base64," + id,
		AspectRatio:      domain.AspectSquare,
	}
}

func newTestStore(t *testing.T, kv domain.KV) *Store {
	t.Helper()
	store := NewStore(kv, zerolog.Nop())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("загрузка не должна падать: %v", err)
	}
	return store
}

func TestSaveDraftUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemoryKV())

	if err := store.SaveDraft(ctx, content("a")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := store.SaveDraft(ctx, content("b")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	updated := content("a")
	updated.Post.SetCaption("обновлённая подпись")
	if err := store.SaveDraft(ctx, updated); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	drafts := store.Drafts()
	if len(drafts) != 2 {
		t.Fatalf("повторное сохранение не добавляет черновик, получили %d", len(drafts))
	}
	if drafts[0].ID != "a" || drafts[1].ID != "b" {
		t.Fatalf("upsert должен сохранять позицию: %s, %s", drafts[0].ID, drafts[1].ID)
	}
	if drafts[0].Post.Caption() != "обновлённая подпись" {
		t.Fatalf("черновик не обновился")
	}
}

func TestSaveDraftRollbackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	store := newTestStore(t, kv)

	if err := store.SaveDraft(ctx, content("a")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	kv.failSet[draftsKey] = true
	err := store.SaveDraft(ctx, content("b"))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("ожидали ErrPersistence, получили %v", err)
	}
	if drafts := store.Drafts(); len(drafts) != 1 || drafts[0].ID != "a" {
		t.Fatalf("при сбое записи память откатывается, получили %v", drafts)
	}
}

func TestScheduleKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemoryKV())
	platforms := []domain.Platform{domain.PlatformInstagram}

	mar15morning := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	mar10 := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	mar15evening := time.Date(2026, time.March, 15, 18, 30, 0, 0, time.UTC)

	if _, err := store.Schedule(ctx, content("a"), mar15morning, platforms); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := store.Schedule(ctx, content("b"), mar10, platforms); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := store.Schedule(ctx, content("c"), mar15evening, platforms); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	scheduled := store.Scheduled()
	if len(scheduled) != 3 {
		t.Fatalf("ожидали 3 поста, получили %d", len(scheduled))
	}
	got := []string{scheduled[0].Content.ID, scheduled[1].Content.ID, scheduled[2].Content.ID}
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("расписание не отсортировано по дате: %v", got)
		}
	}
}

func TestScheduleStableOnEqualDates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemoryKV())
	platforms := []domain.Platform{domain.PlatformFacebook}
	when := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.Schedule(ctx, content(id), when, platforms); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}

	scheduled := store.Scheduled()
	if scheduled[0].Content.ID != "a" || scheduled[1].Content.ID != "b" || scheduled[2].Content.ID != "c" {
		t.Fatalf("при равных датах порядок вставки должен сохраняться")
	}
}

func TestScheduleRejectsEmptyPlatforms(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	store := newTestStore(t, kv)
	before := kv.sets

	_, err := store.Schedule(ctx, content("a"), time.Now(), nil)
	if !errors.Is(err, domain.ErrEmptyPlatformSet) {
		t.Fatalf("ожидали ErrEmptyPlatformSet, получили %v", err)
	}
	if kv.sets != before {
		t.Fatalf("отклонённая команда не должна писать в хранилище")
	}
	if len(store.Scheduled()) != 0 {
		t.Fatalf("отклонённая команда не должна менять расписание")
	}
}

func TestPublishPrepends(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemoryKV())
	platforms := []domain.Platform{domain.PlatformGoogle}

	if _, err := store.Publish(ctx, content("first"), platforms); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := store.Publish(ctx, content("second"), platforms); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	published := store.Published()
	if len(published) != 2 {
		t.Fatalf("ожидали 2 публикации")
	}
	if published[0].Content.ID != "second" || published[1].Content.ID != "first" {
		t.Fatalf("свежая публикация должна стоять первой: %s, %s", published[0].Content.ID, published[1].Content.ID)
	}
}

func TestPublishRejectsEmptyPlatforms(t *testing.T) {
	store := newTestStore(t, newMemoryKV())

	_, err := store.Publish(context.Background(), content("a"), []domain.Platform{})
	if !errors.Is(err, domain.ErrEmptyPlatformSet) {
		t.Fatalf("ожидали ErrEmptyPlatformSet, получили %v", err)
	}
	if len(store.Published()) != 0 {
		t.Fatalf("отклонённая команда не должна менять публикации")
	}
}

func TestLoadRestoresCollections(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	store := newTestStore(t, kv)
	platforms := []domain.Platform{domain.PlatformInstagram}

	if err := store.SaveDraft(ctx, content("d")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := store.Schedule(ctx, content("s"), time.Now().Add(time.Hour), platforms); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := store.Publish(ctx, content("p"), platforms); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	restored := newTestStore(t, kv)
	if len(restored.Drafts()) != 1 || len(restored.Scheduled()) != 1 || len(restored.Published()) != 1 {
		t.Fatalf("коллекции должны переживать перезапуск")
	}
	if restored.Drafts()[0].Post.Caption() != "подпись d" {
		t.Fatalf("черновик восстановился с потерями")
	}
}

func TestDueBefore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemoryKV())
	platforms := []domain.Platform{domain.PlatformFacebook}
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Schedule(ctx, content("past"), now.Add(-time.Hour), platforms); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := store.Schedule(ctx, content("future"), now.Add(time.Hour), platforms); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	due := store.DueBefore(now)
	if len(due) != 1 || due[0].Content.ID != "past" {
		t.Fatalf("ожидали один просроченный пост, получили %v", due)
	}
}

func TestPublishScheduled(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemoryKV())
	platforms := []domain.Platform{domain.PlatformInstagram, domain.PlatformFacebook}

	scheduled, err := store.Schedule(ctx, content("s"), time.Now().Add(-time.Minute), platforms)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	post, err := store.PublishScheduled(ctx, scheduled.ID)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if post.Content.ID != "s" || len(post.Platforms) != 2 {
		t.Fatalf("публикация должна наследовать контент и площадки")
	}
	if len(store.Scheduled()) != 0 {
		t.Fatalf("пост должен уйти из расписания")
	}
	if published := store.Published(); len(published) != 1 || published[0].ID != post.ID {
		t.Fatalf("пост должен появиться в публикациях")
	}
}

func TestPublishScheduledUnknownID(t *testing.T) {
	store := newTestStore(t, newMemoryKV())

	_, err := store.PublishScheduled(context.Background(), "нет-такого")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestPublishScheduledRollbackOnScheduleWriteFailure(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	store := newTestStore(t, kv)
	platforms := []domain.Platform{domain.PlatformGoogle}

	scheduled, err := store.Schedule(ctx, content("s"), time.Now().Add(-time.Minute), platforms)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	kv.failSet[scheduledKey] = true
	_, err = store.PublishScheduled(ctx, scheduled.ID)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("ожидали ErrPersistence, получили %v", err)
	}
	if len(store.Scheduled()) != 1 {
		t.Fatalf("пост не должен пропасть из расписания")
	}
	if len(store.Published()) != 0 {
		t.Fatalf("публикация должна откатиться")
	}
}
