package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pvbess-model/internal/dispatch"
	"pvbess-model/internal/model"
)

var ErrNotFound = errors.New("run not found")

// Run is a stored simulation result, retrievable by ID from the API.
type Run struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	StepHours float64                 `json:"step_hours"`
	Hourly    []dispatch.HourlyResult `json:"hourly,omitempty"`
	Totals    model.Totals            `json:"totals"`
	Yearly    []model.YearlyRecord    `json:"yearly,omitempty"`
}

type Store interface {
	// Save assigns an ID when run.ID is empty and returns it.
	Save(ctx context.Context, run *Run) (string, error)
	Get(ctx context.Context, id string) (*Run, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Options selects and configures a store implementation.
type Options struct {
	Kind string // "memory" (default) or "sqlite"
	Path string // sqlite file path
	TTL  time.Duration
}

// Open builds the store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Kind) {
	case "", "memory":
		return NewMemoryStore(opts.TTL), nil
	case "sqlite":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite run store needs a path")
		}
		s, err := OpenSQLite(ctx, opts.Path, opts.TTL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown run store %q (want memory or sqlite)", opts.Kind)
	}
}

func prepare(run *Run, now time.Time) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
}
