package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const resolverTimeout = 2 * time.Second

// ResolvedEndpoint is the delivery target the remote resolver returned
// for one environment.
type ResolvedEndpoint struct {
	Env        string
	URL        string
	Secret     string
	EndpointID int64
	UpdatedAt  string
	FetchedAt  time.Time
}

// Resolver looks up the active webhook endpoint for an environment from
// the simulator control plane, caching results briefly so event bursts
// do not hammer it. A nil result means "no resolved endpoint"; callers
// fall back to static configuration.
type Resolver struct {
	baseURL string
	token   string
	ttl     time.Duration
	client  *http.Client
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedEndpoint
}

type cachedEndpoint struct {
	endpoint ResolvedEndpoint
	storedAt time.Time
}

// NewResolver creates an endpoint resolver. Empty baseURL or token
// disables resolution entirely.
func NewResolver(baseURL, token string, cacheTTL time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		ttl:     cacheTTL,
		client:  &http.Client{Timeout: resolverTimeout},
		logger:  logger,
		cache:   make(map[string]cachedEndpoint),
	}
}

// Configured reports whether the resolver has the settings it needs.
func (r *Resolver) Configured() bool {
	return r.baseURL != "" && r.token != ""
}

// Resolve returns the active endpoint for env, or nil when the resolver
// is unconfigured, unreachable, or answered with something unusable.
// Resolution failures are logged and swallowed; webhook delivery must
// never depend on the control plane being up.
func (r *Resolver) Resolve(ctx context.Context, env string) *ResolvedEndpoint {
	if !r.Configured() {
		return nil
	}

	if cached := r.getCached(env); cached != nil {
		return cached
	}
	return r.fetch(ctx, env)
}

func (r *Resolver) getCached(env string) *ResolvedEndpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[env]
	if !ok {
		return nil
	}
	if time.Since(entry.storedAt) >= r.ttl {
		delete(r.cache, env)
		return nil
	}
	endpoint := entry.endpoint
	return &endpoint
}

func (r *Resolver) fetch(ctx context.Context, env string) *ResolvedEndpoint {
	url := fmt.Sprintf("%s/api/dev/webhook-endpoints/active?env=%s", r.baseURL, env)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.logger.Warn("build resolver request", zap.Error(err))
		return nil
	}
	req.Header.Set("X-Internal-Token", r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("webhook endpoint resolver unreachable",
			zap.String("env", env), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("webhook endpoint resolver returned non-200",
			zap.String("env", env), zap.Int("status", resp.StatusCode))
		return nil
	}

	var payload struct {
		ID        int64  `json:"id"`
		URL       string `json:"url"`
		Secret    string `json:"secret"`
		UpdatedAt string `json:"updatedAt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		r.logger.Warn("invalid resolver response",
			zap.String("env", env), zap.Error(err))
		return nil
	}
	if payload.URL == "" || payload.Secret == "" {
		r.logger.Warn("resolver response missing url or secret", zap.String("env", env))
		return nil
	}

	resolved := ResolvedEndpoint{
		Env:        env,
		URL:        payload.URL,
		Secret:     payload.Secret,
		EndpointID: payload.ID,
		UpdatedAt:  payload.UpdatedAt,
		FetchedAt:  time.Now().UTC(),
	}
	r.mu.Lock()
	r.cache[env] = cachedEndpoint{endpoint: resolved, storedAt: time.Now()}
	r.mu.Unlock()

	r.logger.Info("resolved webhook endpoint",
		zap.String("env", env), zap.Int64("endpoint_id", resolved.EndpointID))
	return &resolved
}
