package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/opencampus/campus-api/utils/cache"
	"github.com/opencampus/campus-api/utils/identity"
)

// otpChallengeKey is the Redis key layout the OTP issuer writes challenges
// under. This adapter only reads it.
func otpChallengeKey(challengeID string) string {
	return fmt.Sprintf("otp:challenge:%s", challengeID)
}

// otpChallenge is the stored shape of a challenge. Expiry is handled by the
// issuer through the key TTL; an expired challenge is simply absent.
type otpChallenge struct {
	InstitutionID uint   `json:"institution_id"`
	Phone         string `json:"phone"`
	Scope         string `json:"scope"`
	Code          string `json:"code"`
}

// RedisOTPVerifier verifies one-time codes against challenges stored in Redis
// by the external OTP issuer. It never generates, stores or expires
// challenges, and consumes a challenge on successful verification so a code
// cannot be replayed.
type RedisOTPVerifier struct {
	cache *cache.RedisCache
}

// NewRedisOTPVerifier creates a new Redis-backed OTP verifier
func NewRedisOTPVerifier(redisCache *cache.RedisCache) *RedisOTPVerifier {
	return &RedisOTPVerifier{cache: redisCache}
}

// Verify checks the code against the stored challenge. A missing or expired
// challenge, a scope/phone/institution mismatch, or a wrong code all yield
// (false, nil); only infrastructure failures return an error.
func (v *RedisOTPVerifier) Verify(ctx context.Context, in VerifyOTPInput) (bool, error) {
	key := otpChallengeKey(in.ChallengeID)

	var challenge otpChallenge
	err := v.cache.GetJSON(ctx, key, &challenge)
	if err == cache.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if challenge.InstitutionID != in.InstitutionID {
		return false, nil
	}
	if challenge.Scope != "" && in.Scope != "" && challenge.Scope != in.Scope {
		return false, nil
	}
	if !identity.PhonesMatch(challenge.Phone, in.Phone) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(in.Code)) != 1 {
		return false, nil
	}

	// Consume the challenge so the code cannot be replayed.
	if err := v.cache.Delete(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}
