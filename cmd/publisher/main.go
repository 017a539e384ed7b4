package main

import (
	"context"
	"errors"
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
	log := logger.NewLogger(cfg.AppEnv, "publisher")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store domain.KV
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("publisher: нет подключения к БД")
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
			log.Fatal().Err(err).Msg("publisher: нет подключения к брокеру")
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

	for {
		job, err := jobs.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("publisher: остановка")
				return
			}
			log.Error().Err(err).Msg("publisher: ошибка чтения очереди")
			time.Sleep(time.Second)
			continue
		}

		if err := lifecycleStore.Load(ctx); err != nil {
			log.Error().Err(err).Msg("publisher: не удалось перечитать коллекции")
			continue
		}

		post, err := lifecycleStore.PublishScheduled(ctx, job.ScheduledID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// Пост уже опубликован или снят с расписания.
			log.Warn().Str("scheduled_id", job.ScheduledID).Msg("publisher: задача без поста в расписании")
		case err != nil:
			log.Error().Err(err).Str("scheduled_id", job.ScheduledID).Msg("publisher: публикация не удалась")
		default:
			log.Info().Str("scheduled_id", job.ScheduledID).Str("published_id", post.ID).Msg("publisher: пост опубликован")
		}
	}
}
