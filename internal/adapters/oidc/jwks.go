package oidc

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/ssopoc/authgate/internal/errors"
)

const jwksFetchTimeout = 10 * time.Second

// JWKSCache is a read-mostly cache over the IdP's JWKS endpoint. Lookups by
// key ID serve from the cached set while it is fresh; a miss (unknown kid or
// stale set) triggers a refresh, collapsed to at most one in-flight fetch
// via singleflight. A TTL of zero disables caching and re-fetches on every
// lookup.
type JWKSCache struct {
	uri    string
	client *http.Client
	ttl    time.Duration

	mu        sync.RWMutex
	set       jwk.Set
	fetchedAt time.Time

	group singleflight.Group
}

// NewJWKSCache creates a cache for the given JWKS endpoint.
func NewJWKSCache(uri string, client *http.Client, ttl time.Duration) *JWKSCache {
	if client == nil {
		client = &http.Client{Timeout: jwksFetchTimeout}
	}
	return &JWKSCache{uri: uri, client: client, ttl: ttl}
}

// Key resolves a signing key by its key ID, refreshing the set when the key
// is unknown so rotated keys are picked up. A key that is still missing
// after a fresh fetch is an authentication failure, not a network one.
func (c *JWKSCache) Key(ctx context.Context, kid string) (jwk.Key, error) {
	if key, ok := c.cachedKey(kid); ok {
		return key, nil
	}

	if _, err, _ := c.group.Do(c.uri, func() (any, error) {
		return nil, c.refresh(ctx)
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "fetch JWKS")
	}

	c.mu.RLock()
	set := c.set
	c.mu.RUnlock()
	if set != nil {
		if key, ok := set.LookupKeyID(kid); ok {
			return key, nil
		}
	}
	return nil, apperrors.Authf("signing key %q not found in JWKS", kid)
}

func (c *JWKSCache) cachedKey(kid string) (jwk.Key, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.set == nil || c.ttl <= 0 || time.Since(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.set.LookupKeyID(kid)
}

func (c *JWKSCache) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, jwksFetchTimeout)
	defer cancel()

	set, err := jwk.Fetch(ctx, c.uri, jwk.WithHTTPClient(c.client))
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.set = set
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}
