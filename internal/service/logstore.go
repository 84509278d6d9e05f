package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calorbunga/backend/internal/models"
	"github.com/calorbunga/backend/pkg/logger"
)

// LogStore is the keyed append/delete collection of food log entries with
// change notification. Entries are scoped under the deployment namespace
// and the owning user.
type LogStore struct {
	db        *gorm.DB
	namespace string
	log       *logger.Logger

	mu   sync.RWMutex
	subs map[uuid.UUID]map[*logSubscriber]struct{}
}

type logSubscriber struct {
	userID uuid.UUID
	ch     chan []*models.FoodLogEntry
	once   sync.Once
}

func (s *logSubscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// NewLogStore creates a new LogStore instance
func NewLogStore(db *gorm.DB, namespace string, log *logger.Logger) *LogStore {
	return &LogStore{
		db:        db,
		namespace: namespace,
		log:       log,
		subs:      make(map[uuid.UUID]map[*logSubscriber]struct{}),
	}
}

// Insert persists a new entry, assigns its identifier and notifies the
// user's subscribers
func (s *LogStore) Insert(ctx context.Context, entry *models.FoodLogEntry) (uuid.UUID, error) {
	entry.Namespace = s.namespace
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert entry: %w", err)
	}
	s.notify(ctx, entry.UserID)
	return entry.ID, nil
}

// Delete removes one entry owned by the user and notifies subscribers
func (s *LogStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("namespace = ? AND user_id = ? AND id = ?", s.namespace, userID, id).
		Delete(&models.FoodLogEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.notify(ctx, userID)
	return nil
}

// ListDay returns the user's entries for one calendar-day key, most recent
// first
func (s *LogStore) ListDay(ctx context.Context, userID uuid.UUID, day string) ([]*models.FoodLogEntry, error) {
	var entries []*models.FoodLogEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND user_id = ? AND date = ?", s.namespace, userID, day).
		Order("timestamp DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// listAll returns every entry for the user across all days; subscribers
// receive the full set and filter by day themselves
func (s *LogStore) listAll(ctx context.Context, userID uuid.UUID) ([]*models.FoodLogEntry, error) {
	var entries []*models.FoodLogEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND user_id = ?", s.namespace, userID).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Subscribe registers for change notifications on the user's log. The
// returned channel delivers a full immutable snapshot of the user's entries
// on every change, starting with the current state. Slow consumers see the
// latest snapshot only. The channel is closed when cancel is called or when
// a snapshot cannot be produced (sync failure; the view freezes).
func (s *LogStore) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan []*models.FoodLogEntry, func(), error) {
	initial, err := s.listAll(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreSync, err)
	}

	sub := &logSubscriber{
		userID: userID,
		ch:     make(chan []*models.FoodLogEntry, 1),
	}
	sub.ch <- initial

	s.mu.Lock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[*logSubscriber]struct{})
	}
	s.subs[userID][sub] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if set := s.subs[userID]; set != nil {
			delete(set, sub)
			if len(set) == 0 {
				delete(s.subs, userID)
			}
		}
		s.mu.Unlock()
		sub.close()
	}

	return sub.ch, cancel, nil
}

// notify recomputes the user's snapshot and fans it out to subscribers. A
// snapshot failure closes the user's subscriptions so consumers observe a
// sync error instead of silently stale data.
func (s *LogStore) notify(ctx context.Context, userID uuid.UUID) {
	s.mu.RLock()
	hasSubs := len(s.subs[userID]) > 0
	s.mu.RUnlock()
	if !hasSubs {
		return
	}

	snapshot, err := s.listAll(ctx, userID)
	if err != nil {
		s.log.Errorw("log store snapshot failed", "user_id", userID, "error", err)
		s.mu.Lock()
		for sub := range s.subs[userID] {
			sub.close()
		}
		delete(s.subs, userID)
		s.mu.Unlock()
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subs[userID] {
		// Latest snapshot wins: drop a pending one before sending
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
		}
	}
}
