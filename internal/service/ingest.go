package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/calorbunga/backend/internal/models"
	"github.com/calorbunga/backend/pkg/logger"
)

// Estimator produces a nutrition estimate for one food description
type Estimator interface {
	Estimate(ctx context.Context, description string) (*models.NutritionEstimate, error)
}

const (
	ingestLockTTL    = 5 * time.Minute
	pendingInputTTL  = 24 * time.Hour
	ingestLockPrefix = "ingest:lock"
	pendingKeyPrefix = "ingest:pending"
)

// IngestionService splits a raw submission into items, estimates each one
// in input order and writes the resulting entries to the log store. One
// submission per user may be in flight at a time.
type IngestionService struct {
	estimator Estimator
	store     *LogStore
	redis     *redis.Client
	log       *logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(estimator Estimator, store *LogStore, redisClient *redis.Client, log *logger.Logger) *IngestionService {
	return &IngestionService{
		estimator: estimator,
		store:     store,
		redis:     redisClient,
		log:       log,
		now:       time.Now,
		inFlight:  make(map[uuid.UUID]bool),
	}
}

// SplitItems splits a raw submission on commas and newlines, trims each
// piece and drops empties
func SplitItems(rawText string) []string {
	pieces := strings.FieldsFunc(rawText, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	items := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if trimmed := strings.TrimSpace(piece); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// Ingest processes one submission for the given day key. Items run
// sequentially; the first failure aborts the remainder and the error names
// the failed item. Entries persisted before the failure are kept (partial
// success is a visible outcome). Returns the entries written.
func (s *IngestionService) Ingest(ctx context.Context, userID uuid.UUID, rawText, day string) ([]*models.FoodLogEntry, error) {
	items := SplitItems(rawText)
	if len(items) == 0 {
		return nil, nil
	}

	release, err := s.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	written := make([]*models.FoodLogEntry, 0, len(items))
	for _, item := range items {
		stats, err := s.estimator.Estimate(ctx, item)
		if err != nil {
			return written, fmt.Errorf("%w: item %q: %v", ErrIngestionFailed, item, err)
		}

		now := s.now()
		entry := &models.FoodLogEntry{
			UserID:    userID,
			Name:      item,
			Date:      day,
			Time:      now.Format("15:04"),
			Timestamp: now.UnixMilli(),
			Stats:     *stats,
		}
		if _, err := s.store.Insert(ctx, entry); err != nil {
			return written, fmt.Errorf("%w: item %q: %v", ErrIngestionFailed, item, err)
		}
		written = append(written, entry)
		s.log.Infow("entry logged", "user_id", userID, "name", item, "date", day, "cal", stats.Calories)
	}

	if err := s.ClearPendingInput(ctx, userID); err != nil {
		// Non-fatal: the buffer only drives input restoration
		s.log.Warnw("failed to clear pending input", "user_id", userID, "error", err)
	}
	return written, nil
}

// acquire takes the per-user single-flight guard. A local map rejects
// concurrent submissions within this process; a Redis token extends the
// guard across instances. Callers holding the guard must call the returned
// release func.
func (s *IngestionService) acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	s.mu.Lock()
	if s.inFlight[userID] {
		s.mu.Unlock()
		return nil, ErrIngestInFlight
	}
	s.inFlight[userID] = true
	s.mu.Unlock()

	releaseLocal := func() {
		s.mu.Lock()
		delete(s.inFlight, userID)
		s.mu.Unlock()
	}

	if s.redis == nil {
		return releaseLocal, nil
	}

	key := fmt.Sprintf("%s:%s", ingestLockPrefix, userID)
	ok, err := s.redis.SetNX(ctx, key, 1, ingestLockTTL).Result()
	if err != nil {
		// Redis being down must not block logging; the local guard still holds
		s.log.Warnw("ingest lock check failed", "user_id", userID, "error", err)
		return releaseLocal, nil
	}
	if !ok {
		releaseLocal()
		return nil, ErrIngestInFlight
	}

	return func() {
		if err := s.redis.Del(context.Background(), key).Err(); err != nil {
			s.log.Warnw("failed to release ingest lock", "user_id", userID, "error", err)
		}
		releaseLocal()
	}, nil
}

// SavePendingInput stores the user's unsubmitted input buffer
func (s *IngestionService) SavePendingInput(ctx context.Context, userID uuid.UUID, text string) error {
	if s.redis == nil {
		return nil
	}
	key := fmt.Sprintf("%s:%s", pendingKeyPrefix, userID)
	if err := s.redis.Set(ctx, key, text, pendingInputTTL).Err(); err != nil {
		return fmt.Errorf("failed to save pending input: %w", err)
	}
	return nil
}

// GetPendingInput returns the user's saved input buffer, empty when none
func (s *IngestionService) GetPendingInput(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.redis == nil {
		return "", nil
	}
	key := fmt.Sprintf("%s:%s", pendingKeyPrefix, userID)
	text, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get pending input: %w", err)
	}
	return text, nil
}

// ClearPendingInput drops the user's input buffer after a full success
func (s *IngestionService) ClearPendingInput(ctx context.Context, userID uuid.UUID) error {
	if s.redis == nil {
		return nil
	}
	key := fmt.Sprintf("%s:%s", pendingKeyPrefix, userID)
	return s.redis.Del(ctx, key).Err()
}
