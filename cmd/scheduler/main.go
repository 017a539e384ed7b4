package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"smm-studio/internal/adapters/repo"
	"smm-studio/internal/domain"
	"smm-studio/internal/infra/config"
	"smm-studio/internal/infra/db"
	"smm-studio/internal/infra/kv"
	logger "smm-studio/internal/infra/log"
	"smm-studio/internal/infra/metrics"
	"smm-studio/internal/infra/queue"
	"smm-studio/internal/usecase/lifecycle"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger(cfg.AppEnv, "scheduler")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store domain.KV
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
		}
		defer pool.Close()
		store = repo.NewPostgres(pool)
	} else {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		store = kv.NewRedis(client)
	}

	var jobs domain.PublishQueue
	if cfg.AMQP.URL != "" {
		amqpQueue, err := queue.NewAMQPPublishQueue(cfg.AMQP.URL, cfg.Queues.Publish)
		if err != nil {
			log.Fatal().Err(err).Msg("scheduler: нет подключения к брокеру")
		}
		defer amqpQueue.Close()
		jobs = amqpQueue
	} else {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		jobs = queue.NewRedisPublishQueue(client, cfg.Queues.Publish)
	}

	metrics.StartServer(ctx, log, fmt.Sprintf(":%d", cfg.Port))

	lifecycleStore := lifecycle.NewStore(store, log)

	// Посты, уже отданные в очередь: пока публикатор не убрал пост из
	// расписания, повторная постановка не нужна.
	enqueued := map[string]struct{}{}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler: остановка")
			return
		case <-ticker.C:
		}

		if err := lifecycleStore.Load(ctx); err != nil {
			log.Error().Err(err).Msg("scheduler: не удалось перечитать расписание")
			continue
		}

		current := map[string]struct{}{}
		for _, post := range lifecycleStore.Scheduled() {
			current[post.ID] = struct{}{}
		}
		for id := range enqueued {
			if _, ok := current[id]; !ok {
				delete(enqueued, id)
			}
		}

		now := time.Now().UTC()
		for _, post := range lifecycleStore.DueBefore(now) {
			if _, ok := enqueued[post.ID]; ok {
				continue
			}
			job := domain.PublishJob{ScheduledID: post.ID, EnqueuedAt: now}
			if err := jobs.Enqueue(ctx, job); err != nil {
				log.Error().Err(err).Str("scheduled_id", post.ID).Msg("scheduler: не удалось поставить задачу")
				continue
			}
			enqueued[post.ID] = struct{}{}
			log.Info().Str("scheduled_id", post.ID).Time("due", post.ScheduledDate).Msg("scheduler: пост отдан в очередь публикации")
		}
	}
}
