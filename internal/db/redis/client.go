package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store implements db.Store via rueidis for Redis 8+ with the query engine.
type Store struct {
	client rueidis.Client
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH and FT.AGGREGATE parsing expects RESP2 arrays
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreForTest wraps an existing client, typically a rueidis mock.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search backend: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	name := commandName(cmd.Commands())
	start := time.Now()
	res := s.client.Do(ctx, cmd)
	metrics.ObserveCommand(name, start, nonNilErr(res.Error()))
	return res
}

func (s *Store) doMulti(ctx context.Context, cmds ...rueidis.Completed) []rueidis.RedisResult {
	if len(cmds) == 0 {
		return nil
	}
	name := commandName(cmds[0].Commands())
	start := time.Now()
	results := s.client.DoMulti(ctx, cmds...)
	var firstErr error
	for _, r := range results {
		if err := nonNilErr(r.Error()); err != nil {
			firstErr = err
			break
		}
	}
	metrics.ObserveCommand(name, start, firstErr)
	return results
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

func commandName(parts []string) string {
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.ToUpper(parts[0])
}

// nonNilErr treats a nil reply as success for metrics.
func nonNilErr(err error) error {
	if rueidis.IsRedisNil(err) {
		return nil
	}
	return err
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}

// isUnknownIndex matches the missing-index replies of RediSearch and Redis 8.
func isUnknownIndex(err error) bool {
	return isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index")
}

// wrapQueryErr classifies an FT.SEARCH / FT.AGGREGATE failure.
func wrapQueryErr(op string, err error) error {
	switch {
	case isUnknownIndex(err):
		return db.ErrIndexNotFound
	case isRedisErr(err, "syntax error"), isRedisErr(err, "unknown field"),
		isRedisErr(err, "no such attribute"), isRedisErr(err, "bad arguments"):
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %s", db.ErrInvalidQuery, err.Error())}
	default:
		return &db.Error{Op: op, Err: err}
	}
}
