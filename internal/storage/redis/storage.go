package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Entities are stored as JSON documents; secondary lookups use index keys.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying client so other components can share the connection pool
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getJSON loads the document at key into v, mapping a missing key to notFound
func getJSON(ctx context.Context, c getter, key string, notFound error, v any) error {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, accountKey(account.ID), data, 0)
	pipe.Set(ctx, emailIndexKey(account.Email), string(account.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	var account model.Account
	if err := getJSON(ctx, s.client, accountKey(id), model.ErrAccountNotFound, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	id, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	return s.GetAccount(ctx, model.AccountID(id))
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, playerKey(player.ID), data, 0)
	if player.HasAccount() {
		pipe.Set(ctx, accountPlayerIndexKey(player.AccountID), string(player.ID), 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	if err := getJSON(ctx, s.client, playerKey(id), model.ErrPlayerNotFound, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByAccount(ctx context.Context, accountID model.AccountID) (*model.Player, error) {
	id, err := s.client.Get(ctx, accountPlayerIndexKey(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetPlayer(ctx, model.PlayerID(id))
}

// Pool operations

func (s *Storage) CreatePool(ctx context.Context, pool *model.Pool) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, poolKey(pool.ID), data, 0)
	pipe.Set(ctx, inviteIndexKey(pool.InviteCode), string(pool.ID), 0)
	indexMembers(ctx, pipe, pool)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPool(ctx context.Context, id model.PoolID) (*model.Pool, error) {
	var pool model.Pool
	if err := getJSON(ctx, s.client, poolKey(id), model.ErrPoolNotFound, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

func (s *Storage) GetPoolByInviteCode(ctx context.Context, code model.InviteCode) (*model.Pool, error) {
	id, err := s.client.Get(ctx, inviteIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPoolNotFound
		}
		return nil, err
	}
	return s.GetPool(ctx, model.PoolID(id))
}

func (s *Storage) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	exists, err := s.client.Exists(ctx, inviteIndexKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) ListPoolsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Pool, error) {
	ids, err := s.client.SMembers(ctx, playerPoolsIndexKey(playerID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Pool{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = poolKey(model.PoolID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	pools := make([]*model.Pool, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var pool model.Pool
		if err := json.Unmarshal([]byte(str), &pool); err != nil {
			return nil, err
		}
		pools = append(pools, &pool)
	}
	return pools, nil
}

func (s *Storage) UpdatePool(ctx context.Context, id model.PoolID, fn storage.PoolMutator) (*model.Pool, error) {
	key := poolKey(id)
	var result *model.Pool

	txf := func(tx *redis.Tx) error {
		var pool model.Pool
		if err := getJSON(ctx, tx, key, model.ErrPoolNotFound, &pool); err != nil {
			return err
		}
		previousCode := pool.InviteCode

		if err := fn(&pool); err != nil {
			return err
		}
		data, err := json.Marshal(&pool)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if pool.InviteCode != previousCode {
				pipe.Del(ctx, inviteIndexKey(previousCode))
				pipe.Set(ctx, inviteIndexKey(pool.InviteCode), string(pool.ID), 0)
			}
			indexMembers(ctx, pipe, &pool)
			return nil
		})
		if err != nil {
			return err
		}
		result = &pool
		return nil
	}

	if err := s.watch(ctx, txf, key); err != nil {
		return nil, err
	}
	return result, nil
}

// indexMembers keeps the player -> pools sets in line with pool membership
func indexMembers(ctx context.Context, pipe redis.Pipeliner, pool *model.Pool) {
	for _, m := range pool.Members {
		if m.Active {
			pipe.SAdd(ctx, playerPoolsIndexKey(m.PlayerID), string(pool.ID))
		} else {
			pipe.SRem(ctx, playerPoolsIndexKey(m.PlayerID), string(pool.ID))
		}
	}
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, 0)
	indexSession(ctx, pipe, session)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var session model.Session
	if err := getJSON(ctx, s.client, sessionKey(id), model.ErrSessionNotFound, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) ListSessionsForPool(ctx context.Context, poolID model.PoolID) ([]*model.Session, error) {
	ids, err := s.client.ZRange(ctx, poolSessionsIndexKey(poolID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return s.getSessions(ctx, ids)
}

func (s *Storage) ListSessionsWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	ids, err := s.client.ZRangeByScore(ctx, deadlineIndexKey(), &redis.ZRangeBy{
		Min: strconv.FormatInt(from.UnixMilli(), 10),
		Max: strconv.FormatInt(to.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}
	sessions, err := s.getSessions(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartsAt.Before(sessions[j].StartsAt)
	})
	return sessions, nil
}

func (s *Storage) UpdateSession(ctx context.Context, id model.SessionID, fn storage.SessionMutator) (*model.Session, error) {
	key := sessionKey(id)
	var result *model.Session

	txf := func(tx *redis.Tx) error {
		var session model.Session
		if err := getJSON(ctx, tx, key, model.ErrSessionNotFound, &session); err != nil {
			return err
		}
		if err := fn(&session); err != nil {
			return err
		}
		data, err := json.Marshal(&session)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			indexSession(ctx, pipe, &session)
			return nil
		})
		if err != nil {
			return err
		}
		result = &session
		return nil
	}

	if err := s.watch(ctx, txf, key); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Storage) SessionForPayment(ctx context.Context, paymentID model.PaymentID) (model.SessionID, error) {
	id, err := s.client.HGet(ctx, paymentIndexKey(), string(paymentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrPaymentNotFound
		}
		return "", err
	}
	return model.SessionID(id), nil
}

// watch runs txf under WATCH on key, retrying when another client modified the key first
func (s *Storage) watch(ctx context.Context, txf func(*redis.Tx) error, key string) error {
	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return storage.ErrConflict
}

// getSessions fetches sessions by ID, preserving order and skipping missing keys
func (s *Storage) getSessions(ctx context.Context, ids []string) ([]*model.Session, error) {
	if len(ids) == 0 {
		return []*model.Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(model.SessionID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.Session, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var session model.Session
		if err := json.Unmarshal([]byte(str), &session); err != nil {
			return nil, err
		}
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

// indexSession refreshes the pool, deadline and payment indexes for a session
func indexSession(ctx context.Context, pipe redis.Pipeliner, session *model.Session) {
	id := string(session.ID)
	pipe.ZAdd(ctx, poolSessionsIndexKey(session.PoolID), redis.Z{
		Score:  float64(session.StartsAt.UnixMilli()),
		Member: id,
	})

	if session.RosterLocked && session.PaymentDeadline != nil {
		pipe.ZAdd(ctx, deadlineIndexKey(), redis.Z{
			Score:  float64(session.PaymentDeadline.UnixMilli()),
			Member: id,
		})
	} else {
		pipe.ZRem(ctx, deadlineIndexKey(), id)
	}

	if len(session.Payments) > 0 {
		fields := make([]any, 0, 2*len(session.Payments))
		for _, p := range session.Payments {
			fields = append(fields, string(p.ID), id)
		}
		pipe.HSet(ctx, paymentIndexKey(), fields...)
	}
}
