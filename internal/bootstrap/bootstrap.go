package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/ai-closet/internal/config"
	"github.com/kirillkom/ai-closet/internal/core/ports"
	"github.com/kirillkom/ai-closet/internal/core/usecase"
	"github.com/kirillkom/ai-closet/internal/infrastructure/queue/local"
	natsqueue "github.com/kirillkom/ai-closet/internal/infrastructure/queue/nats"
	mongorepo "github.com/kirillkom/ai-closet/internal/infrastructure/repository/mongo"
	"github.com/kirillkom/ai-closet/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/ai-closet/internal/infrastructure/resilience"
	"github.com/kirillkom/ai-closet/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/ai-closet/internal/infrastructure/storage/s3"
	"github.com/kirillkom/ai-closet/internal/infrastructure/vision/fal"
	"github.com/kirillkom/ai-closet/internal/infrastructure/vision/gemini"
	"github.com/kirillkom/ai-closet/internal/infrastructure/vision/imagefetch"
	"github.com/kirillkom/ai-closet/internal/infrastructure/vision/openai"
	"github.com/kirillkom/ai-closet/internal/observability/metrics"
)

// Role selects which process is being wired. The API only builds the
// processing pipeline when it runs the in-process queue.
type Role string

const (
	RoleAPI    Role = "api"
	RoleWorker Role = "worker"
)

type App struct {
	Config config.Config

	Queue        ports.ProcessingQueue
	ClothingRepo ports.ClothingRepository
	Storage      ports.ObjectStorage
	// UploadsDir is the local blob directory to serve, empty for S3.
	UploadsDir string

	IngestUC   ports.ClothingIngestor
	ClothingUC ports.ClothingService
	OutfitUC   ports.OutfitService
	ImagesUC   ports.ImageUploader
	ProcessUC  ports.ClothingProcessor

	WorkerMetrics *metrics.WorkerMetrics

	closers []func()
}

func New(ctx context.Context, cfg config.Config, role Role) (app *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	app = &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	clothingRepo, outfitRepo, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}
	app.ClothingRepo = clothingRepo

	storage, err := app.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	app.Storage = storage

	queue, err := app.openQueue()
	if err != nil {
		return nil, err
	}
	app.Queue = queue

	app.IngestUC = usecase.NewIngestClothingUseCase(clothingRepo, storage, queue)
	app.ClothingUC = usecase.NewClothingUseCase(clothingRepo, storage)
	app.OutfitUC = usecase.NewOutfitUseCase(outfitRepo, clothingRepo, storage)
	app.ImagesUC = usecase.NewImageUploadUseCase(storage)

	if role == RoleWorker || cfg.QueueDriver == "local" {
		if err := app.buildPipeline(ctx, clothingRepo, storage, string(role)); err != nil {
			return nil, err
		}
	}
	return app, nil
}

func (a *App) openStore(ctx context.Context) (ports.ClothingRepository, ports.OutfitRepository, error) {
	switch a.Config.StoreDriver {
	case "mongo":
		client, err := mongorepo.Connect(ctx, a.Config.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		a.onClose(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		})
		db := client.Database(a.Config.MongoDatabase)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return mongorepo.NewClothingRepository(db), mongorepo.NewOutfitRepository(db), nil
	default:
		db, err := postgres.OpenDB(a.Config.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		a.onClose(func() { _ = db.Close() })
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return postgres.NewClothingRepository(db), postgres.NewOutfitRepository(db), nil
	}
}

func (a *App) openStorage(ctx context.Context) (ports.ObjectStorage, error) {
	if a.Config.StorageDriver == "s3" {
		storage, err := s3.New(ctx, s3.Options{
			Bucket:        a.Config.S3Bucket,
			Region:        a.Config.S3Region,
			Endpoint:      a.Config.S3Endpoint,
			PublicBaseURL: a.Config.S3PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return storage, nil
	}
	storage, err := localfs.New(a.Config.StoragePath, a.Config.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	a.UploadsDir = storage.Root()
	return storage, nil
}

func (a *App) openQueue() (ports.ProcessingQueue, error) {
	if a.Config.QueueDriver == "nats" {
		queue, err := natsqueue.NewWithOptions(a.Config.NATSURL, a.Config.NATSSubject, natsqueue.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.BrokerProfile()),
			HandlerTimeout:     a.Config.ProcessTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		a.onClose(queue.Close)
		return queue, nil
	}
	return local.New(local.Options{
		Workers:        a.Config.LocalWorkers,
		HandlerTimeout: a.Config.ProcessTimeout,
	}), nil
}

func (a *App) buildPipeline(ctx context.Context, repo ports.ClothingRepository, storage ports.ObjectStorage, service string) error {
	a.WorkerMetrics = metrics.NewWorkerMetrics(service)
	vision := resilience.NewExecutor(resilience.VisionProfile(), resilience.WithObserver(a.WorkerMetrics))
	fetcher := imagefetch.New(resilience.NewExecutor(resilience.FetchProfile(), resilience.WithObserver(a.WorkerMetrics)), 0)
	remover := fal.New(a.Config.FalAPIKey, fal.Options{
		Endpoint:           a.Config.FalEndpoint,
		PollInterval:       a.Config.BGPollInterval,
		MaxAttempts:        a.Config.BGMaxAttempts,
		ResilienceExecutor: vision,
	})

	var categorizer ports.ClothingCategorizer
	switch a.Config.Categorizer {
	case "gemini":
		c, err := gemini.New(ctx, a.Config.GeminiAPIKey, a.Config.GeminiModel, fetcher, vision)
		if err != nil {
			return fmt.Errorf("init gemini categorizer: %w", err)
		}
		a.onClose(func() { _ = c.Close() })
		categorizer = c
	default:
		categorizer = openai.NewCategorizer(openai.New(a.Config.OpenAIBaseURL, a.Config.OpenAIAPIKey, a.Config.OpenAIModel, vision))
	}

	a.ProcessUC = usecase.NewProcessClothingUseCase(repo, storage, remover, fetcher, categorizer, a.WorkerMetrics)
	slog.Info("pipeline_ready",
		"categorizer", a.Config.Categorizer,
		"queue", a.Config.QueueDriver,
		"bg_poll_interval_ms", a.Config.BGPollInterval.Milliseconds(),
		"bg_max_attempts", a.Config.BGMaxAttempts,
	)
	return nil
}

// ProcessItem is the queue handler: it runs the pipeline for one item and
// records the run in the worker metrics.
func (a *App) ProcessItem(ctx context.Context, itemID string) error {
	a.WorkerMetrics.StartItem()
	start := time.Now()
	err := a.ProcessUC.ProcessByID(ctx, itemID)
	a.WorkerMetrics.FinishItem(time.Since(start), err)
	return err
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
