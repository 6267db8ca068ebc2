package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/ventrapay/escrow-server/internal/shared/events"
	"github.com/ventrapay/escrow-server/internal/shared/metrics"
)

// Target is one assembled delivery destination for an event.
type Target struct {
	URL        string
	Secret     string
	Label      string
	EndpointID int64
}

// Service fans domain events out to webhook consumers. Delivery is fire
// and forget: it happens on background goroutines after the business
// transaction has committed, and a failed delivery is logged, counted
// and dropped. A circuit breaker stops the service from piling requests
// onto a consumer that keeps failing.
type Service struct {
	repo           Repository
	resolver       *Resolver
	env            string
	fallbackURL    string
	fallbackSecret string
	client         *http.Client
	breaker        *gobreaker.CircuitBreaker[struct{}]
	metrics        *metrics.Metrics
	logger         *zap.Logger

	warnResolverOnce sync.Once
}

// NewService creates a webhook delivery service.
func NewService(repo Repository, resolver *Resolver, env, fallbackURL, fallbackSecret string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Service {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "webhook-delivery",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Service{
		repo:           repo,
		resolver:       resolver,
		env:            env,
		fallbackURL:    fallbackURL,
		fallbackSecret: fallbackSecret,
		client:         &http.Client{Timeout: timeout},
		breaker:        breaker,
		metrics:        m,
		logger:         logger,
	}
}

// Dispatch delivers a batch of post-commit events in order.
func (s *Service) Dispatch(ctx context.Context, evs []events.Event) {
	for _, ev := range evs {
		s.Emit(ctx, ev.Name, ev.Data)
	}
}

// Emit sends one event to every configured target. The payload is built
// once so all targets see the same event id and timestamp.
func (s *Service) Emit(ctx context.Context, event string, data map[string]any) {
	targets := s.assembleTargets(ctx)
	if len(targets) == 0 {
		s.logger.Debug("no webhook targets configured", zap.String("event", event))
		return
	}

	payload := map[string]any{
		"id":         uuid.NewString(),
		"event":      event,
		"data":       data,
		"created_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal webhook payload", zap.String("event", event), zap.Error(err))
		return
	}

	// Detach from the request context; delivery outlives the response.
	bg := context.WithoutCancel(ctx)
	for _, target := range targets {
		go s.send(bg, target, event, body)
	}
}

// assembleTargets builds the delivery list: the resolved endpoint when
// the resolver works, otherwise the static fallback, plus every enabled
// subscription. A subscription pointing at the fallback URL is skipped
// so the same consumer is not hit twice.
func (s *Service) assembleTargets(ctx context.Context) []Target {
	var targets []Target

	if resolved := s.resolver.Resolve(ctx, s.env); resolved != nil {
		targets = append(targets, Target{
			URL:        resolved.URL,
			Secret:     resolved.Secret,
			Label:      "resolver",
			EndpointID: resolved.EndpointID,
		})
	} else if s.fallbackURL != "" && s.fallbackSecret != "" {
		if !s.resolver.Configured() {
			s.warnResolverOnce.Do(func() {
				s.logger.Warn("webhook resolver not configured, using fallback URL and secret")
			})
		} else {
			s.logger.Warn("webhook resolver failed, using fallback URL and secret",
				zap.String("env", s.env))
		}
		targets = append(targets, Target{
			URL:    s.fallbackURL,
			Secret: s.fallbackSecret,
			Label:  "env_fallback",
		})
	}

	subs, err := s.repo.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("list webhook subscriptions", zap.Error(err))
		return targets
	}
	for _, sub := range subs {
		if s.fallbackURL != "" && sub.URL == s.fallbackURL {
			continue
		}
		targets = append(targets, Target{
			URL:    sub.URL,
			Secret: sub.Secret,
			Label:  "db_subscription",
		})
	}
	return targets
}

func (s *Service) send(ctx context.Context, target Target, event string, body []byte) {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.post(ctx, target, body)
	})
	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.WebhookDeliveriesTotal.WithLabelValues("success").Inc()
		}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		if s.metrics != nil {
			s.metrics.WebhookDeliveriesTotal.WithLabelValues("circuit_open").Inc()
		}
		s.logger.Warn("webhook delivery skipped, circuit open",
			zap.String("event", event), zap.String("url", target.URL))
	default:
		if s.metrics != nil {
			s.metrics.WebhookDeliveriesTotal.WithLabelValues("failure").Inc()
		}
		s.logger.Warn("webhook delivery failed",
			zap.String("event", event),
			zap.String("url", target.URL),
			zap.String("source", target.Label),
			zap.Error(err),
		)
	}
}

func (s *Service) post(ctx context.Context, target Target, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", Sign(target.Secret, body))

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook responded with HTTP %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature consumers verify against
// the X-Signature header.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// EnsureDefaultSubscription makes sure the fallback URL has an enabled
// subscription carrying the current secret. Called once at startup.
func (s *Service) EnsureDefaultSubscription(ctx context.Context) error {
	if s.fallbackURL == "" || s.fallbackSecret == "" {
		return nil
	}

	existing, err := s.repo.GetByURL(ctx, s.fallbackURL)
	if err != nil {
		return fmt.Errorf("look up default subscription: %w", err)
	}
	if existing != nil {
		if existing.IsEnabled && existing.Secret == s.fallbackSecret {
			return nil
		}
		existing.IsEnabled = true
		existing.Secret = s.fallbackSecret
		return s.repo.Update(ctx, existing)
	}

	return s.repo.Create(ctx, &Subscription{
		ID:        uuid.New(),
		URL:       s.fallbackURL,
		Secret:    s.fallbackSecret,
		IsEnabled: true,
	})
}
