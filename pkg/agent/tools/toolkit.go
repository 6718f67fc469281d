package tools

import (
	"context"
	"time"

	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/internal/repository/unitofwork"
)

const logModule = "AGENT_TOOL"

// InvoiceCreated describes a fresh commit. Replays of an earlier commit do
// not produce one.
type InvoiceCreated struct {
	InvoiceID     uint
	InvoiceNumber string
	WorkspaceID   uint
	CustomerID    uint
	BusinessID    uint
	Total         float64
	SessionID     string
	CreatedAt     time.Time
}

// CommitObserver is told about every new invoice. It must not block for long;
// the tool result waits for it.
type CommitObserver interface {
	InvoiceCreated(ctx context.Context, event InvoiceCreated)
}

// Toolkit holds the collaborators shared by all tool handlers.
type Toolkit struct {
	factory  unitofwork.RepositoryFactory
	logger   logger.ILogger
	now      func() time.Time
	observer CommitObserver
}

type Option func(*Toolkit)

func WithClock(now func() time.Time) Option {
	return func(k *Toolkit) {
		k.now = now
	}
}

func WithCommitObserver(o CommitObserver) Option {
	return func(k *Toolkit) {
		k.observer = o
	}
}

func NewToolkit(factory unitofwork.RepositoryFactory, log logger.ILogger, opts ...Option) *Toolkit {
	k := &Toolkit{
		factory: factory,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}
