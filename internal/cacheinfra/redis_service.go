package cacheinfra

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// DefaultRedisKeyPrefix namespaces every key written by RedisService.
const DefaultRedisKeyPrefix = "collections:"

// RedisConfig holds connection and expiry settings for RedisService.
type RedisConfig struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Validate reports the first invalid setting.
func (c RedisConfig) Validate() error {
	if len(c.Addrs) == 0 {
		return &ConfigError{Field: "Addrs", Message: "at least one address is required"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.DB < 0 {
		return &ConfigError{Field: "DB", Message: "must be non-negative"}
	}
	return nil
}

// StoreError wraps a failed Redis command.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("redis %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// RedisService is a tagged cache shared between processes. Values are stored
// as msgpack and decoded into the result type of the fetch function; int64,
// float64, []byte and time.Time values keep their types.
// Each tag is a Redis set holding the keys registered under it.
type RedisService struct {
	client rueidis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// RedisOption configures a RedisService.
type RedisOption func(*RedisService)

// WithRedisLogger sets the logger used for cache write failures.
func WithRedisLogger(l *zap.Logger) RedisOption {
	return func(s *RedisService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewRedisService connects to Redis with rueidis.
func NewRedisService(cfg RedisConfig, opts ...RedisOption) (*RedisService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return newRedisService(client, cfg, opts...), nil
}

func newRedisService(client rueidis.Client, cfg RedisConfig, opts ...RedisOption) *RedisService {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	s := &RedisService{
		client: client,
		prefix: prefix,
		ttl:    cfg.TTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close shuts down the client.
func (s *RedisService) Close() {
	s.client.Close()
}

func (s *RedisService) valueKey(key string) string { return s.prefix + key }
func (s *RedisService) tagKey(tag string) string   { return s.prefix + "tag:" + tag }

// GetOrFetch reads key from Redis, calling fetchFn on a miss. A failed write
// of the fetched value is logged and the value is still returned.
func (s *RedisService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}
	outType := reflect.TypeOf(fetchFn).Out(0)

	cmd := s.client.B().Get().Key(s.valueKey(key)).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	switch {
	case err == nil:
		return decodeValue(data, outType)
	case !rueidis.IsRedisNil(err):
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}

	v, err := callFetchFn(ctx, fetchFn)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeValue(v)
	if err != nil {
		return nil, fmt.Errorf("encode cached value %s: %w", key, err)
	}
	set := s.client.B().Set().Key(s.valueKey(key)).Value(string(encoded)).Ex(s.ttl).Build()
	if err := s.client.Do(ctx, set).Error(); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

func encodeValue(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func decodeValue(data []byte, t reflect.Type) (any, error) {
	ptr := reflect.New(t)
	if err := msgpack.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("decode cached value: %w", err)
	}
	return ptr.Elem().Interface(), nil
}

// Delete removes a single entry.
func (s *RedisService) Delete(ctx context.Context, key string) error {
	cmd := s.client.B().Del().Key(s.valueKey(key)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &StoreError{Op: "del", Key: key, Err: err}
	}
	return nil
}

// DeleteByPrefix scans the keys starting with prefix and deletes them.
func (s *RedisService) DeleteByPrefix(ctx context.Context, prefix string) error {
	match := escapeGlob(s.valueKey(prefix)) + "*"
	var cursor uint64
	for {
		scan := s.client.B().Scan().Cursor(cursor).Match(match).Count(500).Build()
		entry, err := s.client.Do(ctx, scan).AsScanEntry()
		if err != nil {
			return &StoreError{Op: "scan", Key: prefix, Err: err}
		}
		if len(entry.Elements) > 0 {
			del := s.client.B().Del().Key(entry.Elements...).Build()
			if err := s.client.Do(ctx, del).Error(); err != nil {
				return &StoreError{Op: "del", Key: entry.Elements[0], Err: err}
			}
		}
		if entry.Cursor == 0 {
			return nil
		}
		cursor = entry.Cursor
	}
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

func escapeGlob(s string) string { return globEscaper.Replace(s) }

// Tag adds key to the set of every tag and refreshes the set expiry.
func (s *RedisService) Tag(ctx context.Context, key string, tags ...string) error {
	cmds := make(rueidis.Commands, 0, len(tags)*2)
	seconds := int64(s.ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		tk := s.tagKey(tag)
		cmds = append(cmds,
			s.client.B().Sadd().Key(tk).Member(key).Build(),
			s.client.B().Expire().Key(tk).Seconds(seconds).Build(),
		)
	}
	if len(cmds) == 0 {
		return nil
	}

	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &StoreError{Op: "tag", Key: key, Err: err}
		}
	}
	return nil
}

// InvalidateTags deletes the keys held by every tag together with the tag
// sets.
func (s *RedisService) InvalidateTags(ctx context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, len(tags))
	for i, tag := range tags {
		cmds[i] = s.client.B().Smembers().Key(s.tagKey(tag)).Build()
	}

	var doomed []string
	seen := map[string]bool{}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		keys, err := res.AsStrSlice()
		if err != nil && !rueidis.IsRedisNil(err) {
			return &StoreError{Op: "smembers", Key: s.tagKey(tags[i]), Err: err}
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				doomed = append(doomed, s.valueKey(k))
			}
		}
	}
	for _, tag := range tags {
		doomed = append(doomed, s.tagKey(tag))
	}

	del := s.client.B().Del().Key(doomed...).Build()
	if err := s.client.Do(ctx, del).Error(); err != nil {
		return &StoreError{Op: "del", Key: doomed[0], Err: err}
	}
	return nil
}
