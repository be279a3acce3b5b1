package service

import (
	"time"

	"intranet/pkg"
	"intranet/pkg/apperr"
)

// RedisResetTokenStore keeps password-reset tokens in Redis with a TTL, so
// they expire without any cleanup job. Keys: pwreset:<token> -> email.
type RedisResetTokenStore struct{}

func NewRedisResetTokenStore() *RedisResetTokenStore {
	return &RedisResetTokenStore{}
}

func (slf *RedisResetTokenStore) Save(token string, email string, ttl time.Duration) error {
	return pkg.RedisSet("pwreset:"+token, email, ttl)
}

func (slf *RedisResetTokenStore) Consume(token string) (string, error) {
	key := "pwreset:" + token
	var email string
	if err := pkg.RedisGet(key, &email); err != nil {
		if pkg.IsRedisNil(err) {
			return "", apperr.Validation("invalid or expired reset token")
		}
		return "", err
	}
	// Single use: delete before returning.
	if err := pkg.RedisDelete(key); err != nil {
		return "", err
	}
	return email, nil
}
