package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/core/ports"
)

const persistTimeout = 10 * time.Second

type ProcessClothingUseCase struct {
	repo        ports.ClothingRepository
	storage     ports.ObjectStorage
	remover     ports.BackgroundRemover
	fetcher     ports.ImageFetcher
	categorizer ports.ClothingCategorizer
	observer    ports.StageObserver
}

func NewProcessClothingUseCase(
	repo ports.ClothingRepository,
	storage ports.ObjectStorage,
	remover ports.BackgroundRemover,
	fetcher ports.ImageFetcher,
	categorizer ports.ClothingCategorizer,
	observer ports.StageObserver,
) *ProcessClothingUseCase {
	return &ProcessClothingUseCase{
		repo:        repo,
		storage:     storage,
		remover:     remover,
		fetcher:     fetcher,
		categorizer: categorizer,
		observer:    observer,
	}
}

// ProcessByID runs background removal and then categorization for one item.
// Stage failures are recorded on the item and never returned; the returned
// error means the record itself could not be read or written.
func (uc *ProcessClothingUseCase) ProcessByID(ctx context.Context, itemID string) error {
	item, err := uc.repo.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("fetch clothing item by id: %w", err)
	}

	// Only pending stages run, so a redelivered task never restarts a stage.
	if item.ProcessingStatus.BackgroundRemoval == domain.StagePending {
		if err := uc.runStage(ctx, item, domain.StageBackgroundRemoval, uc.removeBackground); err != nil {
			return err
		}
	}
	if item.ProcessingStatus.Categorization == domain.StagePending {
		if err := uc.runStage(ctx, item, domain.StageCategorization, uc.categorize); err != nil {
			return err
		}
	}
	return nil
}

func (uc *ProcessClothingUseCase) runStage(
	ctx context.Context,
	item *domain.ClothingItem,
	stage domain.Stage,
	work func(context.Context, *domain.ClothingItem) error,
) error {
	start := time.Now()
	if err := uc.markStatus(ctx, item.ID, stage, domain.StageProcessing, ""); err != nil {
		return fmt.Errorf("set %s=processing: %w", stage, err)
	}

	stageErr := work(ctx, item)
	duration := time.Since(start)
	if stageErr == nil {
		uc.observe(stage, domain.StageCompleted, duration)
		slog.Info("stage_completed",
			"item_id", item.ID,
			"stage", string(stage),
			"duration_ms", float64(duration.Microseconds())/1000.0,
		)
		return nil
	}

	uc.observe(stage, domain.StageError, duration)
	slog.Warn("stage_failed",
		"item_id", item.ID,
		"stage", string(stage),
		"duration_ms", float64(duration.Microseconds())/1000.0,
		"error", stageErr,
	)
	if err := uc.markStatus(ctx, item.ID, stage, domain.StageError, stageErr.Error()); err != nil {
		return fmt.Errorf("%w; set %s=error: %v", stageErr, stage, err)
	}
	return nil
}

func (uc *ProcessClothingUseCase) removeBackground(ctx context.Context, item *domain.ClothingItem) error {
	result, err := uc.remover.RemoveBackground(ctx, item.ImageURI)
	if err != nil {
		return fmt.Errorf("remove background: %w", err)
	}
	if err := result.Err(); err != nil {
		return err
	}

	data, _, err := uc.fetcher.Fetch(ctx, result.ImageURL)
	if err != nil {
		return fmt.Errorf("download background-removed image: %w", err)
	}

	key := backgroundRemovedKey(item.UserID)
	if err := uc.storage.Save(ctx, key, "image/png", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store background-removed image: %w", err)
	}

	pctx, cancel := persistContext(ctx)
	defer cancel()
	if err := uc.repo.SaveBackgroundRemoval(pctx, item.ID, uc.storage.URL(key), key); err != nil {
		if delErr := uc.storage.Delete(pctx, key); delErr != nil {
			slog.Warn("release_blob_failed", "key", key, "error", delErr)
		}
		return fmt.Errorf("save background removal: %w", err)
	}
	return nil
}

// categorize always works from the original upload, whatever stage A did.
func (uc *ProcessClothingUseCase) categorize(ctx context.Context, item *domain.ClothingItem) error {
	raw, err := uc.categorizer.Categorize(ctx, item.ImageURI)
	if err != nil {
		return fmt.Errorf("categorize clothing: %w", err)
	}
	cat, err := domain.NormalizeCategorization(raw)
	if err != nil {
		return err
	}

	pctx, cancel := persistContext(ctx)
	defer cancel()
	if err := uc.repo.SaveCategorization(pctx, item.ID, cat); err != nil {
		return fmt.Errorf("save categorization: %w", err)
	}
	return nil
}

func (uc *ProcessClothingUseCase) markStatus(ctx context.Context, itemID string, stage domain.Stage, status domain.StageStatus, errMessage string) error {
	pctx, cancel := persistContext(ctx)
	defer cancel()
	return uc.repo.UpdateStageStatus(pctx, itemID, stage, status, errMessage)
}

func (uc *ProcessClothingUseCase) observe(stage domain.Stage, status domain.StageStatus, duration time.Duration) {
	if uc.observer != nil {
		uc.observer.ObserveStage(stage, status, duration)
	}
}

// persistContext detaches status writes from the task deadline so a timed
// out stage can still be recorded as failed.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}
