package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/persistence"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixSession     = "safeconnect:session:"
	keyPrefixPairing     = "safeconnect:pairing:"
	keyClientIdentity    = "safeconnect:client:identity"
	keySchemaVersion     = "safeconnect:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Redis has no prefix iteration, so listings go through index sets.
	keySetSessions = "safeconnect:sessions:index"
	keySetPairings = "safeconnect:pairings:index"
)

const operationTimeout = 5 * time.Second

// RedisPersistence stores relay state in Redis so several gateway replicas
// (or a restarted container) can share sessions.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "team-a:" gives
	// "team-a:safeconnect:session:<topic>".
	KeyPrefix string
}

func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)
	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

func (r *RedisPersistence) checkOpen() error {
	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return nil
}

// putIndexed writes the value and its index membership in one transaction.
func (r *RedisPersistence) putIndexed(prefix, index, id string, data []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.prefixKey(prefix+id), data, 0)
	pipe.SAdd(ctx, r.prefixKey(index), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisPersistence) deleteIndexed(prefix, index, id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.prefixKey(prefix+id))
	pipe.SRem(ctx, r.prefixKey(index), id)
	_, err := pipe.Exec(ctx)
	return err
}

// get returns nil data when the key does not exist.
func (r *RedisPersistence) get(key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefixKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// listIndexed returns the stored values of every id in the index. Ids whose
// value has vanished are dropped from the index.
func (r *RedisPersistence) listIndexed(prefix, index string) (map[string][]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	ids, err := r.client.SMembers(ctx, r.prefixKey(index)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}
	out := make(map[string][]byte, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.prefixKey(prefix + id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read values for index %s: %w", index, err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			r.logger.Sugar().Warnw("Index entry without value, removing", "index", index, "id", ids[i])
			r.client.SRem(ctx, r.prefixKey(index), ids[i])
			continue
		}
		out[ids[i]] = []byte(s)
	}
	return out, nil
}

func (r *RedisPersistence) SaveSession(session *types.Session) error {
	if session == nil {
		return fmt.Errorf("cannot save nil Session")
	}
	data, err := persistence.MarshalSession(session)
	if err != nil {
		return err
	}
	if err := r.putIndexed(keyPrefixSession, keySetSessions, session.Topic, data); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.Topic, err)
	}
	return nil
}

func (r *RedisPersistence) LoadSession(topic string) (*types.Session, error) {
	data, err := r.get(keyPrefixSession + topic)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", topic, err)
	}
	if data == nil {
		return nil, nil
	}
	return persistence.UnmarshalSession(data)
}

func (r *RedisPersistence) DeleteSession(topic string) error {
	if err := r.deleteIndexed(keyPrefixSession, keySetSessions, topic); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", topic, err)
	}
	return nil
}

func (r *RedisPersistence) ListSessions() ([]*types.Session, error) {
	values, err := r.listIndexed(keyPrefixSession, keySetSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*types.Session, 0, len(values))
	for topic, data := range values {
		s, err := persistence.UnmarshalSession(data)
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal session, skipping", "topic", topic, "error", err)
			continue
		}
		sessions = append(sessions, s)
	}
	persistence.SortSessions(sessions)
	return sessions, nil
}

func (r *RedisPersistence) SavePairing(pairing *persistence.Pairing) error {
	if pairing == nil {
		return fmt.Errorf("cannot save nil Pairing")
	}
	data, err := persistence.MarshalPairing(pairing)
	if err != nil {
		return err
	}
	if err := r.putIndexed(keyPrefixPairing, keySetPairings, pairing.Topic, data); err != nil {
		return fmt.Errorf("failed to save pairing %s: %w", pairing.Topic, err)
	}
	return nil
}

func (r *RedisPersistence) LoadPairing(topic string) (*persistence.Pairing, error) {
	data, err := r.get(keyPrefixPairing + topic)
	if err != nil {
		return nil, fmt.Errorf("failed to load pairing %s: %w", topic, err)
	}
	if data == nil {
		return nil, nil
	}
	return persistence.UnmarshalPairing(data)
}

func (r *RedisPersistence) DeletePairing(topic string) error {
	if err := r.deleteIndexed(keyPrefixPairing, keySetPairings, topic); err != nil {
		return fmt.Errorf("failed to delete pairing %s: %w", topic, err)
	}
	return nil
}

func (r *RedisPersistence) ListPairings() ([]*persistence.Pairing, error) {
	values, err := r.listIndexed(keyPrefixPairing, keySetPairings)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairings: %w", err)
	}

	pairings := make([]*persistence.Pairing, 0, len(values))
	for topic, data := range values {
		p, err := persistence.UnmarshalPairing(data)
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal pairing, skipping", "topic", topic, "error", err)
			continue
		}
		pairings = append(pairings, p)
	}
	persistence.SortPairings(pairings)
	return pairings, nil
}

func (r *RedisPersistence) SaveClientIdentity(identity *persistence.ClientIdentity) error {
	data, err := persistence.MarshalClientIdentity(identity)
	if err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.prefixKey(keyClientIdentity), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save client identity: %w", err)
	}
	return nil
}

func (r *RedisPersistence) LoadClientIdentity() (*persistence.ClientIdentity, error) {
	data, err := r.get(keyClientIdentity)
	if err != nil {
		return nil, fmt.Errorf("failed to load client identity: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return persistence.UnmarshalClientIdentity(data)
}

// Close is idempotent.
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	return err
}

var _ persistence.ISessionPersistence = (*RedisPersistence)(nil)
