package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldcrew/crewsync/internal/observability/logger"
)

// staleRetention multiplica el TTL para decidir cuánto retiene Redis una
// entrada vencida. Pasado eso la entrada desaparece y Get reporta miss.
const staleRetention = 12

// redisStore implementa Store sobre Redis. Guarda un sobre JSON con el
// momento de escritura para poder calcular staleness en el cliente.
type redisStore struct {
	client *redis.Client
	prefix string
}

type redisEnvelope struct {
	Payload  []byte    `json:"payload"`
	StoredAt time.Time `json:"stored_at"`
	TTL      int64     `json:"ttl_seconds"`
}

// NewRedis crea un Store Redis y verifica la conexión.
func NewRedis(cfg Config) (*redisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	return &redisStore{client: rdb, prefix: cfg.Prefix}, nil
}

func (s *redisStore) key(k Key) string {
	if s.prefix == "" {
		return k.String()
	}
	return s.prefix + ":" + k.String()
}

func (s *redisStore) Get(ctx context.Context, key Key) ([]byte, bool, bool) {
	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return nil, false, false
	}
	if err != nil {
		logger.From(ctx).Warn("cache redis get", logger.Key(key.String()), logger.Err(err))
		return nil, false, false
	}

	var env redisEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		// sobre corrupto: tratarlo como miss y dejar que el refresh lo pise
		_ = s.client.Del(ctx, s.key(key)).Err()
		return nil, false, false
	}
	stale := time.Since(env.StoredAt) > time.Duration(env.TTL)*time.Second
	return env.Payload, stale, true
}

func (s *redisStore) Put(ctx context.Context, key Key, payload []byte, ttl time.Duration) {
	env := redisEnvelope{Payload: payload, StoredAt: time.Now().UTC(), TTL: int64(ttl.Seconds())}
	b, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, s.key(key), b, ttl*staleRetention).Err(); err != nil {
		logger.From(ctx).Warn("cache redis set", logger.Key(key.String()), logger.Err(err))
	}
}

func (s *redisStore) Invalidate(ctx context.Context, key Key) {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		logger.From(ctx).Warn("cache redis del", logger.Key(key.String()), logger.Err(err))
	}
}

func (s *redisStore) InvalidateTenant(ctx context.Context, tenantID string) {
	pattern := tenantID + "/*"
	if s.prefix != "" {
		pattern = s.prefix + ":" + pattern
	}
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = s.client.Del(ctx, iter.Val()).Err()
	}
	if err := iter.Err(); err != nil {
		logger.From(ctx).Warn("cache redis scan", logger.TenantID(tenantID), logger.Err(err))
	}
}

// Close cierra la conexión.
func (s *redisStore) Close() error { return s.client.Close() }

var _ Store = (*redisStore)(nil)
