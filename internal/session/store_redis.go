package session

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	keyToken    = "chesslink:session:token"
	keyUsername = "chesslink:session:username"
)

// RedisStore keeps the credential in Redis so multiple terminals on the same
// machine share one login. No TTL is set; the server decides validity.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *RedisStore) Load(ctx context.Context) (*Credential, error) {
	token, err := s.rdb.Get(ctx, keyToken).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	username, err := s.rdb.Get(ctx, keyUsername).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	return &Credential{Token: token, Username: username}, nil
}

func (s *RedisStore) Save(ctx context.Context, cred *Credential) error {
	if cred == nil || strings.TrimSpace(cred.Token) == "" {
		return fmt.Errorf("credential token is required")
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, keyToken, cred.Token, 0)
	pipe.Set(ctx, keyUsername, cred.Username, 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, keyToken, keyUsername).Err()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
