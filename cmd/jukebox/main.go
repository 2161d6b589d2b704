package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/catalog"
	"github.com/hazadus/go-jukebox/internal/config"
	"github.com/hazadus/go-jukebox/internal/ingest"
	"github.com/hazadus/go-jukebox/internal/jukebox"
	"github.com/hazadus/go-jukebox/internal/logger"
	"github.com/hazadus/go-jukebox/internal/metadata"
	"github.com/hazadus/go-jukebox/internal/player"
	"github.com/hazadus/go-jukebox/internal/session"
	"github.com/hazadus/go-jukebox/internal/storage"
)

const (
	defaultConfigPath = "~/.jukebox"
	databaseDirName   = "db"
)

// Application содержит зависимости, общие для всех команд
type Application struct {
	Config   *config.Config
	Log      *zap.Logger
	KV       storage.KV
	Store    *catalog.Store
	Session  *session.Session
	Engine   *player.Engine
	Jukebox  *jukebox.Jukebox
	Pipeline *ingest.Pipeline
}

// NewApplication собирает приложение поверх хранилища и аудиотранспорта
func NewApplication(cfg *config.Config, log *zap.Logger, kv storage.KV, transport player.Transport) *Application {
	store := catalog.New(kv, catalog.WithLogger(log.Named("catalog")))
	sess := session.New(store, session.WithLogger(log.Named("session")))
	engine := player.NewEngine(transport, log.Named("player"))
	engine.SetVolume(cfg.Volume)

	pipeline := ingest.New(store, metadata.NewExtractor(log.Named("metadata")),
		ingest.WithChunkSize(cfg.ChunkSize),
		ingest.WithLogger(log.Named("ingest")))

	return &Application{
		Config:   cfg,
		Log:      log,
		KV:       kv,
		Store:    store,
		Session:  sess,
		Engine:   engine,
		Jukebox:  jukebox.New(sess, engine, store, log.Named("jukebox")),
		Pipeline: pipeline,
	}
}

// Close останавливает воспроизведение и закрывает хранилище
func (app *Application) Close() error {
	app.Jukebox.Close()
	if err := app.KV.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия хранилища: %w", err)
	}
	return nil
}

// Import добавляет файлы и каталоги в библиотеку
func (app *Application) Import(ctx context.Context, paths []string) (ingest.Summary, error) {
	files, err := ingest.OpenFiles(paths)
	if err != nil {
		return ingest.Summary{}, fmt.Errorf("ошибка открытия файлов: %w", err)
	}

	summary, err := app.Pipeline.Ingest(ctx, files, nil)
	app.Jukebox.Refresh(ctx)
	return summary, err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	appLog, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   true,
		Console:    cfg.LogConsole,
	})
	if err != nil {
		log.Fatalf("Ошибка настройки логирования: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	kv, err := storage.Open(filepath.Join(cfg.DataDir, databaseDirName), appLog.Named("storage"))
	if err != nil {
		log.Fatalf("Ошибка открытия библиотеки: %v", err)
	}

	app := NewApplication(cfg, appLog, kv, player.NewBeepTransport())

	err = app.createRootCommand(ctx).ExecuteContext(ctx)
	if closeErr := app.Close(); closeErr != nil {
		appLog.Error("ошибка завершения", zap.Error(closeErr))
	}
	if err != nil {
		os.Exit(1)
	}
}
