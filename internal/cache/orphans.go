package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// OrphanRecorder accumulates blob keys (and metadata ids) stranded by
// partial two-phase failures. The sweep job reconciles the set against the
// stores; recording is best effort and never propagates errors into the
// upload path.
type OrphanRecorder struct {
	client *redis.Client
	set    string
	log    zerolog.Logger
}

func NewOrphanRecorder(client *redis.Client, set string, log zerolog.Logger) *OrphanRecorder {
	return &OrphanRecorder{client: client, set: set, log: log}
}

func (r *OrphanRecorder) Record(ctx context.Context, entry string) {
	if err := r.client.SAdd(ctx, r.set, entry).Err(); err != nil {
		r.log.Error().Err(err).Str("entry", entry).Msg("orphan record failed")
	}
}
