package store

import (
	"context"
	"errors"
	"time"

	"github.com/me/neurolens/pkg/model"
)

// ErrRunActive is returned by StartRun when the run is already RUNNING
// or does not exist.
var ErrRunActive = errors.New("run is already running")

// Store defines the persistence layer for sessions and runs.
// Getters return (nil, nil) when the record does not exist.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	UpdateSession(ctx context.Context, sess *model.Session) error
	DeleteSession(ctx context.Context, id string) error

	// Run operations
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	UpdateRun(ctx context.Context, run *model.Run) error
	// StartRun moves a run that is not RUNNING into RUNNING in one statement.
	StartRun(ctx context.Context, id string, startedAt time.Time) error
	ListRunsBySession(ctx context.Context, sessionID string) ([]*model.Run, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
