package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Store keeps WebAuthn ceremony state between begin and finish.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store { return &Store{rdb: rdb, ttl: ttl} }

func regKey(operatorID string) string { return fmt.Sprintf("webauthn:reg:%s", operatorID) }
func authKey(sid string) string       { return fmt.Sprintf("webauthn:auth:%s", sid) }

func (s *Store) save(ctx context.Context, k string, sd *webauthn.SessionData) error {
	b, err := json.Marshal(sd)
	if err != nil {
		return errors.Wrap(err, "encode webauthn session")
	}
	return s.rdb.Set(ctx, k, b, s.ttl).Err()
}

// load reads and deletes the ceremony state; each challenge is single use.
func (s *Store) load(ctx context.Context, k string) (*webauthn.SessionData, error) {
	b, err := s.rdb.GetDel(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sd webauthn.SessionData
	if err := json.Unmarshal(b, &sd); err != nil {
		return nil, errors.Wrap(err, "decode webauthn session")
	}
	return &sd, nil
}

func (s *Store) SaveReg(ctx context.Context, operatorID string, sd *webauthn.SessionData) error {
	return s.save(ctx, regKey(operatorID), sd)
}

func (s *Store) LoadReg(ctx context.Context, operatorID string) (*webauthn.SessionData, error) {
	return s.load(ctx, regKey(operatorID))
}

func (s *Store) SaveAuth(ctx context.Context, sid string, sd *webauthn.SessionData) error {
	return s.save(ctx, authKey(sid), sd)
}

func (s *Store) LoadAuth(ctx context.Context, sid string) (*webauthn.SessionData, error) {
	return s.load(ctx, authKey(sid))
}
