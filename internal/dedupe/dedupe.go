// Package dedupe suppresses rapid duplicate form submissions. A resolved
// contact ID is remembered per email for a short TTL so a double-clicked
// form can reuse it and skip the create round-trip. Best effort only: a
// cache failure is logged and treated as a miss.
package dedupe

import (
	"context"
	"strings"
	"time"

	"lead-intake/internal/common/database"
	"lead-intake/internal/common/logger"
)

const keyPrefix = "lead:contact:"

type Deduplicator struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func New(client *database.RedisClient, ttl time.Duration, log logger.Logger) *Deduplicator {
	return &Deduplicator{
		redis:  client,
		ttl:    ttl,
		logger: log,
	}
}

// Lookup returns the contact ID previously resolved for this email, if any.
func (d *Deduplicator) Lookup(ctx context.Context, email string) (string, bool) {
	contactID, err := d.redis.Get(ctx, key(email))
	if err != nil {
		if !database.IsNil(err) {
			d.logger.Warn("Dedupe cache lookup failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return "", false
	}
	return contactID, contactID != ""
}

// Remember stores the resolved contact ID for this email.
func (d *Deduplicator) Remember(ctx context.Context, email, contactID string) {
	if err := d.redis.Set(ctx, key(email), contactID, d.ttl); err != nil {
		d.logger.Warn("Dedupe cache store failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func key(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}
