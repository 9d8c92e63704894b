// Package redis is a port.SessionStore shared between server instances.
//
// Each session is one hash at <prefix>session:<id>. The createdField marker
// lets an empty record exist; every other field is a document type holding
// the FieldMap as JSON. Every access refreshes the key's TTL.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"docfill/internal/config"
	"docfill/internal/domain"
)

const createdField = "_created"

// Store implements port.SessionStore on Redis hashes.
type Store struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewClient opens a Redis client from config.
func NewClient(cfg config.RedisConfig) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewStore creates a store. Keys are prefixed with prefix and expire after ttl without access.
func NewStore(client goredis.Cmdable, prefix string, ttl time.Duration) *Store {
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(id string) string {
	return s.prefix + "session:" + id
}

func (s *Store) Ensure(ctx context.Context, id string) (domain.SessionRecord, error) {
	key := s.key(id)
	var all *goredis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSetNX(ctx, key, createdField, strconv.FormatInt(time.Now().Unix(), 10))
		pipe.Expire(ctx, key, s.ttl)
		all = pipe.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrSessionOperation, "redis.Ensure", err)
	}
	return decodeRecord(all.Val())
}

func (s *Store) Put(ctx context.Context, id string, docType domain.DocumentType, fields domain.FieldMap) error {
	if fields == nil {
		fields = domain.FieldMap{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("redis.Put: marshaling fields: %w", err)
	}

	key := s.key(id)
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSetNX(ctx, key, createdField, strconv.FormatInt(time.Now().Unix(), 10))
		pipe.HSet(ctx, key, string(docType), data)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return domain.WrapError(domain.ErrSessionOperation, "redis.Put", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.SessionRecord, bool, error) {
	key := s.key(id)
	all, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, domain.WrapError(domain.ErrSessionOperation, "redis.Get", err)
	}
	if len(all) == 0 {
		return nil, false, nil
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return nil, false, domain.WrapError(domain.ErrSessionOperation, "redis.Get", err)
	}

	rec, err := decodeRecord(all)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return domain.WrapError(domain.ErrSessionOperation, "redis.Destroy", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decodeRecord(hash map[string]string) (domain.SessionRecord, error) {
	rec := make(domain.SessionRecord, len(hash))
	for field, raw := range hash {
		if field == createdField {
			continue
		}
		var fields domain.FieldMap
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, domain.WrapError(domain.ErrSessionOperation, "redis.decode", fmt.Errorf("field %q: %w", field, err))
		}
		rec[domain.DocumentType(field)] = fields
	}
	return rec, nil
}
