package session

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	ErrNotFound = errors.New("session not found")
)

type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *AppSessionStore) TTL() time.Duration { return s.ttl }

type AppSession struct {
	OperatorID string `json:"uid"`
	IssuedAt   int64  `json:"iat"`
	ExpiresAt  int64  `json:"exp"`
}

func key(id string) string             { return fmt.Sprintf("app:sess:%s", id) }
func operatorSetKey(uid string) string { return fmt.Sprintf("app:operator_sessions:%s", uid) }

func (s *AppSessionStore) Create(ctx context.Context, id, operatorID string) error {
	now := s.now()
	b, err := json.Marshal(AppSession{
		OperatorID: operatorID,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(s.ttl).Unix(),
	})
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, s.ttl)
	pipe.SAdd(ctx, operatorSetKey(operatorID), id)
	pipe.Expire(ctx, operatorSetKey(operatorID), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if as != nil {
		pipe.SRem(ctx, operatorSetKey(as.OperatorID), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeAllForOperator drops every session of the operator, e.g. after the
// account was deleted.
func (s *AppSessionStore) RevokeAllForOperator(ctx context.Context, operatorID string) error {
	ids, err := s.rdb.SMembers(ctx, operatorSetKey(operatorID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, operatorSetKey(operatorID))
	_, err = pipe.Exec(ctx)
	return err
}
