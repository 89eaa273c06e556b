package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "minimap:route_map:"

type RedisStore struct {
	log    *zap.Logger
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, addr string, ttl time.Duration, log *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, util.WrapErrorf(da.ErrConfiguration, util.ErrInternalServerError,
			"connect to redis at %s: %v", addr, err)
	}

	log.Info("artifact store connected to redis", zap.String("addr", addr))
	return NewRedisStoreWithClient(client, ttl, log), nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisStore {
	return &RedisStore{log: log, client: client, ttl: ttl}
}

func (r *RedisStore) Save(ctx context.Context, artifact da.RouteArtifact) error {
	if err := invalidArtifact(artifact); err != nil {
		return err
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "encode artifact %s: %v", artifact.ID, err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+artifact.ID, data, r.ttl).Err(); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "store artifact %s: %v", artifact.ID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (da.RouteArtifact, error) {
	if !ValidID(id) {
		return da.RouteArtifact{}, notFound(id)
	}

	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return da.RouteArtifact{}, notFound(id)
		}
		return da.RouteArtifact{}, util.WrapErrorf(err, util.ErrInternalServerError, "load artifact %s: %v", id, err)
	}

	var artifact da.RouteArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return da.RouteArtifact{}, util.WrapErrorf(err, util.ErrInternalServerError, "decode artifact %s: %v", id, err)
	}
	return artifact, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
