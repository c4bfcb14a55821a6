package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"seloger-notifier/models"
	"seloger-notifier/utils"
)

// RedisStore keeps the processed ids in a SET and the records in a HASH of
// JSON documents, both under a common key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *utils.Logger
}

var _ RecordStore = (*RedisStore)(nil)

// NewRedisStore connects to addr and checks the connection.
func NewRedisStore(ctx context.Context, opts *redis.Options, prefix string, logger *utils.Logger) (*RedisStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}, nil
}

func (s *RedisStore) processedKey() string { return s.prefix + "processed" }
func (s *RedisStore) recordsKey() string   { return s.prefix + "records" }

func (s *RedisStore) LoadProcessedSet(ctx context.Context) models.ProcessedSet {
	ids, err := s.client.SMembers(ctx, s.processedKey()).Result()
	if err != nil {
		s.logger.Warn("[redis] Load processed ids failed, starting empty: %v", err)
		return models.NewProcessedSet()
	}
	return models.NewProcessedSet(ids...)
}

func (s *RedisStore) SaveProcessedSet(ctx context.Context, set models.ProcessedSet) error {
	members := make([]any, 0, len(set))
	for _, id := range set.Sorted() {
		members = append(members, id)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.processedKey())
		if len(members) > 0 {
			pipe.SAdd(ctx, s.processedKey(), members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: save processed ids: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadRecords(ctx context.Context) models.RecordMap {
	raw, err := s.client.HGetAll(ctx, s.recordsKey()).Result()
	if err != nil {
		s.logger.Warn("[redis] Load records failed, starting empty: %v", err)
		return models.RecordMap{}
	}
	records, err := decodeRecords(raw)
	if err != nil {
		s.logger.Warn("[redis] Corrupt records, starting empty: %v", err)
		return models.RecordMap{}
	}
	return records
}

func (s *RedisStore) SaveRecords(ctx context.Context, records models.RecordMap) error {
	fields, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recordsKey())
		if len(fields) > 0 {
			pipe.HSet(ctx, s.recordsKey(), fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: save records: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// encodeRecords turns records into HSET field/value pairs.
func encodeRecords(records models.RecordMap) (map[string]any, error) {
	fields := make(map[string]any, len(records))
	for id, r := range records {
		if r == nil {
			continue
		}
		data, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode record %s: %w", id, err)
		}
		fields[id] = string(data)
	}
	return fields, nil
}

func decodeRecords(raw map[string]string) (models.RecordMap, error) {
	records := make(models.RecordMap, len(raw))
	for id, data := range raw {
		r := &models.ListingRecord{}
		if err := json.Unmarshal([]byte(data), r); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
		records[id] = r
	}
	return records, nil
}
