package gateway

import (
	"context"
	"log"
	"time"

	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/query"
)

// Backend executes a structured query against one data source.
type Backend interface {
	Name() string
	Execute(ctx context.Context, q *query.StructuredQuery) (*ResultSet, error)
}

// Config tunes gateway behavior. DisplayCap bounds rows handed to the
// aggregator; RetryBackoff is the pause before the single retry on a
// transient backend failure.
type Config struct {
	DisplayCap   int
	RetryBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		DisplayCap:   50,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// Gateway wraps a backend with retry and display-cap policy. A transient
// failure is retried exactly once; anything else propagates unchanged.
type Gateway struct {
	backend Backend
	config  Config
	logger  *log.Logger
}

func NewGateway(backend Backend, config Config, logger *log.Logger) *Gateway {
	if config.DisplayCap <= 0 {
		config.DisplayCap = DefaultConfig().DisplayCap
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultConfig().RetryBackoff
	}
	return &Gateway{backend: backend, config: config, logger: logger}
}

func (g *Gateway) Backend() string {
	return g.backend.Name()
}

// Execute runs the query, retrying once after a backoff when the backend
// reports a transient failure, then applies the display cap.
func (g *Gateway) Execute(ctx context.Context, q *query.StructuredQuery) (*ResultSet, error) {
	start := time.Now()

	result, err := g.backend.Execute(ctx, q)
	retried := false
	if err != nil && qerr.IsBackendUnavailable(err) {
		g.logger.Printf("[GATEWAY] Backend %s unavailable, retrying once: %v", g.backend.Name(), err)
		select {
		case <-time.After(g.config.RetryBackoff):
		case <-ctx.Done():
			return nil, &qerr.BackendUnavailableError{Backend: g.backend.Name(), Err: ctx.Err()}
		}
		result, err = g.backend.Execute(ctx, q)
		retried = true
	}
	if err != nil {
		return nil, err
	}

	result.RowCount = len(result.Rows)
	if len(result.Rows) > g.config.DisplayCap {
		result.Rows = result.Rows[:g.config.DisplayCap]
		result.Truncated = true
	}
	result.Meta = Meta{
		Backend: g.backend.Name(),
		Latency: time.Since(start),
		Retried: retried,
	}
	g.logger.Printf("[GATEWAY] %s returned %d rows (showing %d) in %s",
		g.backend.Name(), result.RowCount, len(result.Rows), result.Meta.Latency)
	return result, nil
}
