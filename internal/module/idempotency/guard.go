package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/ventrapay/escrow-server/internal/shared/database"
	apperrors "github.com/ventrapay/escrow-server/internal/shared/errors"
	"github.com/ventrapay/escrow-server/internal/shared/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// KeyHeader is the HTTP header carrying the client idempotency key.
	KeyHeader = "Idempotency-Key"

	inflightKeyPrefix = "idempotency:inflight:"
	inflightTTL       = 30 * time.Second
)

// Module errors. Both are AppErrors so handlers resolve them through
// the shared taxonomy.
var (
	ErrConflict = apperrors.IdempotencyConflict("idempotency key reused with a different payload")

	ErrInProgress = &apperrors.AppError{
		Code:       "REQUEST_IN_PROGRESS",
		Message:    "request with this idempotency key is already being processed",
		StatusCode: http.StatusConflict,
		Err:        apperrors.ErrIdempotencyConflict,
	}
)

// Operation is a business operation to run inside the guard's transaction.
// It returns the response body and HTTP-equivalent status code to store for
// replay.
type Operation func(tx *gorm.DB) (any, int, error)

// Guard wraps business operations in one transaction and, when the caller
// supplies an idempotency key, short-circuits duplicate requests: an exact
// retry replays the stored response verbatim, a key reused with a different
// payload fails with ErrConflict, and the first-attempt outcome is stored in
// the same transaction as the state change it describes.
type Guard struct {
	repo    Repository
	tx      database.TxManager
	redis   goredis.UniversalClient
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewGuard creates a new idempotency guard. The redis client and metrics
// are optional; without redis the in-flight duplicate lock is skipped.
func NewGuard(repo Repository, tx database.TxManager, redis goredis.UniversalClient, m *metrics.Metrics, logger *zap.Logger) *Guard {
	return &Guard{
		repo:    repo,
		tx:      tx,
		redis:   redis,
		metrics: m,
		logger:  logger,
	}
}

// Canonicalize renders payload as canonical JSON: stable key ordering,
// compact separators. Two payloads that differ only in field order hash
// identically.
func Canonicalize(payload any) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	// Round-trip through an untyped value so object keys serialize sorted
	// regardless of struct field order.
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("normalize payload: %w", err)
	}
	return json.Marshal(v)
}

// Hash returns the hex SHA-256 digest of the canonicalized payload.
func Hash(payload any) (string, error) {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Execute runs op inside a single transaction. With an empty key the guard
// only provides the transaction boundary. With a key it checks for a prior
// record before the operation, replays or conflicts as appropriate, and
// stores the outcome before commit so a stored replay record and its state
// change are atomic.
func (g *Guard) Execute(ctx context.Context, key, endpoint string, payload any, op Operation) (json.RawMessage, int, error) {
	if key == "" {
		return g.run(ctx, op)
	}

	hash, err := Hash(payload)
	if err != nil {
		return nil, 0, err
	}

	release, err := g.lockInFlight(ctx, key, endpoint)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	var (
		body   json.RawMessage
		status int
	)
	err = g.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		repo := g.repo.WithTx(tx)

		prior, err := repo.Get(ctx, key, endpoint)
		if err != nil {
			return err
		}
		if prior != nil {
			if prior.RequestHash != hash {
				if g.metrics != nil {
					g.metrics.IdempotencyConflictsTotal.Inc()
				}
				return ErrConflict
			}
			if g.metrics != nil {
				g.metrics.IdempotencyReplaysTotal.Inc()
			}
			g.logger.Info("idempotent replay",
				zap.String("key", key),
				zap.String("endpoint", endpoint),
			)
			body = prior.ResponseJSON
			status = prior.StatusCode
			return nil
		}

		out, code, err := op(tx)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}

		if err := repo.Create(ctx, &Record{
			Key:          key,
			Endpoint:     endpoint,
			RequestHash:  hash,
			ResponseJSON: encoded,
			StatusCode:   code,
		}); err != nil {
			return fmt.Errorf("store idempotency record: %w", err)
		}

		body = encoded
		status = code
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return body, status, nil
}

// run executes op in a transaction without idempotency bookkeeping.
func (g *Guard) run(ctx context.Context, op Operation) (json.RawMessage, int, error) {
	var (
		body   json.RawMessage
		status int
	)
	err := g.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		out, code, err := op(tx)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		body = encoded
		status = code
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return body, status, nil
}

// lockInFlight takes a short-lived lock so two concurrent requests with the
// same key cannot race each other into the storage layer. Without redis the
// database's first-writer-wins constraint is the only protection.
func (g *Guard) lockInFlight(ctx context.Context, key, endpoint string) (func(), error) {
	if g.redis == nil {
		return func() {}, nil
	}

	sum := sha256.Sum256([]byte(endpoint + ":" + key))
	lockKey := inflightKeyPrefix + hex.EncodeToString(sum[:])

	locked, err := g.redis.SetNX(ctx, lockKey, "1", inflightTTL).Result()
	if err != nil {
		// Redis being down should not block business traffic.
		g.logger.Warn("idempotency lock unavailable", zap.Error(err))
		return func() {}, nil
	}
	if !locked {
		return func() {}, ErrInProgress
	}
	return func() {
		g.redis.Del(context.WithoutCancel(ctx), lockKey)
	}, nil
}
