package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/logging"
	"github.com/dmitrijs2005/certvault/internal/models"
)

// DefaultTimeout bounds a single backend call when no timeout is given.
const DefaultTimeout = 5 * time.Second

// Chain consults several backends in order of preference.
//
// FindByID returns the first hit. If nothing matched it returns
// common.ErrorNotFound when at least one backend answered and
// common.ErrStoreUnreachable when none did. Append mirrors the entry to
// every backend and succeeds when at least one accepted it.
type Chain struct {
	backends []Repository
	timeout  time.Duration
	logger   logging.Logger
}

// NewChain builds a Chain over backends, most preferred first.
func NewChain(logger logging.Logger, timeout time.Duration, backends ...Repository) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Chain{
		backends: backends,
		timeout:  timeout,
		logger:   logger.With("module", "records"),
	}
}

func (c *Chain) Name() string { return "chain" }

// Backends returns the names of the configured backends in order.
func (c *Chain) Backends() []string {
	names := make([]string, 0, len(c.backends))
	for _, b := range c.backends {
		names = append(names, b.Name())
	}
	return names
}

func (c *Chain) FindByID(ctx context.Context, certificateID string) (*models.Record, error) {
	if len(c.backends) == 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnreachable, common.ErrNoStoreConfigured)
	}

	answered := false
	for _, b := range c.backends {
		rec, err := c.find(ctx, b, certificateID)
		switch {
		case err == nil:
			return rec, nil
		case errors.Is(err, common.ErrorNotFound):
			answered = true
		default:
			c.logger.Warn(ctx, "record store lookup failed", "backend", b.Name(), "error", err)
		}
	}

	if answered {
		return nil, common.ErrorNotFound
	}
	return nil, common.ErrStoreUnreachable
}

func (c *Chain) Append(ctx context.Context, e models.Entry) error {
	if len(c.backends) == 0 {
		return fmt.Errorf("%w: %w", common.ErrStoreUnreachable, common.ErrNoStoreConfigured)
	}

	accepted := 0
	duplicate := false
	for _, b := range c.backends {
		err := c.append(ctx, b, e)
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, common.ErrorAlreadyExists):
			duplicate = true
			c.logger.Warn(ctx, "record already present", "backend", b.Name(), "key", e.StoreKey())
		default:
			c.logger.Warn(ctx, "record store append failed", "backend", b.Name(), "error", err)
		}
	}

	switch {
	case accepted > 0:
		return nil
	case duplicate:
		return common.ErrorAlreadyExists
	default:
		return common.ErrStoreUnreachable
	}
}

func (c *Chain) find(ctx context.Context, b Repository, id string) (*models.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return b.FindByID(ctx, id)
}

func (c *Chain) append(ctx context.Context, b Repository, e models.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return b.Append(ctx, e)
}

// Close closes every backend that holds resources.
func (c *Chain) Close() error {
	var errs []error
	for _, b := range c.backends {
		if cl, ok := b.(io.Closer); ok {
			errs = append(errs, cl.Close())
		}
	}
	return errors.Join(errs...)
}

// openers are seams for the backends that need a live server.
var (
	openPostgres = OpenPostgres
	openSQLite   = OpenSQLite
)

// Open builds the Chain described by cfg: postgres, redis, sqlite, then the
// JSON log. A backend that fails to open is logged and left out, so a down
// database degrades to the local stores instead of failing the command.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) *Chain {
	if logger == nil {
		logger = logging.Nop()
	}
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var backends []Repository

	if cfg.DatabaseDSN != "" {
		octx, cancel := context.WithTimeout(ctx, timeout)
		s, err := openPostgres(octx, cfg.DatabaseDSN)
		cancel()
		if err != nil {
			logger.Warn(ctx, "postgres record store unavailable", "error", err)
		} else {
			backends = append(backends, s)
		}
	}
	if cfg.RedisAddr != "" {
		backends = append(backends, NewRedisStore(cfg.RedisAddr, cfg.RedisPassword))
	}
	if cfg.SQLitePath != "" {
		s, err := openSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Warn(ctx, "sqlite record store unavailable", "error", err)
		} else {
			backends = append(backends, s)
		}
	}
	if cfg.LocalStorePath != "" {
		backends = append(backends, NewJSONStore(cfg.LocalStorePath))
	}

	return NewChain(logger, timeout, backends...)
}
