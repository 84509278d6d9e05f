package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/calorbunga/backend/internal/models"
	"github.com/calorbunga/backend/internal/types"
)

// IAuthService defines the interface for session operations
type IAuthService interface {
	Register(name, email, password string) (string, error)
	Login(email, password string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// ILogStore defines the interface the ingestion pipeline and handlers use
// to reach the entry collection
type ILogStore interface {
	Insert(ctx context.Context, entry *models.FoodLogEntry) (uuid.UUID, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ListDay(ctx context.Context, userID uuid.UUID, day string) ([]*models.FoodLogEntry, error)
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan []*models.FoodLogEntry, func(), error)
}

// IIngestionService defines the interface for submitting raw food text
type IIngestionService interface {
	Ingest(ctx context.Context, userID uuid.UUID, rawText, day string) ([]*models.FoodLogEntry, error)
	SavePendingInput(ctx context.Context, userID uuid.UUID, text string) error
	GetPendingInput(ctx context.Context, userID uuid.UUID) (string, error)
}
