package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"smm-studio/internal/adapters/api"
	"smm-studio/internal/adapters/imagegen"
	"smm-studio/internal/adapters/repo"
	"smm-studio/internal/adapters/textgen"
	"smm-studio/internal/domain"
	"smm-studio/internal/infra/config"
	"smm-studio/internal/infra/db"
	"smm-studio/internal/infra/gemini"
	httpinfra "smm-studio/internal/infra/http"
	"smm-studio/internal/infra/kv"
	logger "smm-studio/internal/infra/log"
	"smm-studio/internal/infra/metrics"
	"smm-studio/internal/usecase/generation"
	"smm-studio/internal/usecase/lifecycle"
	"smm-studio/internal/usecase/revision"
	"smm-studio/internal/usecase/settings"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger(cfg.AppEnv, "api")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store domain.KV
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("api: нет подключения к БД")
		}
		defer pool.Close()
		store = repo.NewPostgres(pool)
	} else {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		store = kv.NewRedis(client)
	}

	settingsSvc := settings.NewService(store, log)
	if err := settingsSvc.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("api: не удалось загрузить профиль компании")
	}

	lifecycleStore := lifecycle.NewStore(store, log)
	if err := lifecycleStore.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("api: не удалось загрузить коллекции")
	}

	var (
		text   domain.TextGenerator
		images domain.ImageGenerator
	)
	if cfg.Gemini.UseStub || cfg.Gemini.APIKey == "" {
		log.Warn().Msg("api: генеративный сервис работает в режиме заглушки")
		text = textgen.NewStub()
		images = imagegen.NewStub()
	} else {
		client := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Timeout)
		text = textgen.NewGemini(client, cfg.Gemini.TextModel, cfg.Gemini.FastModel, cfg.Gemini.Timeout)
		images = imagegen.NewGemini(client, cfg.Gemini.ImageModel, cfg.Gemini.Timeout)
	}

	genSvc := generation.NewService(text, images, settingsSvc, cfg.Generation.ImageCount, log)
	revSvc := revision.NewService(text, images, settingsSvc, cfg.Generation.ImageCount, log)

	srv := httpinfra.NewServer(log)
	api.NewHandler(genSvc, revSvc, lifecycleStore, settingsSvc, log).Register(srv.Router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("api: остановка сервера не удалась")
		}
	}()

	if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatal().Err(err).Msg("api: сервер остановился с ошибкой")
	}
}
