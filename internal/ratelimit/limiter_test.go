package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type LimiterSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	limiter *Limiter
	ctx     context.Context
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.limiter = NewLimiter(client)
	s.ctx = context.Background()
}

func (s *LimiterSuite) TearDownTest() {
	s.mr.Close()
}

func (s *LimiterSuite) TestFreshIPIsNotLimited() {
	exceeded, err := s.limiter.CheckIPRateLimit(s.ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.False(exceeded)
}

func (s *LimiterSuite) TestIPLimitedAfterMaxRequests() {
	for i := 0; i < ipMaxRequests; i++ {
		s.Require().NoError(s.limiter.RecordIPRequest(s.ctx, "10.0.0.1"))
	}

	exceeded, err := s.limiter.CheckIPRateLimit(s.ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.True(exceeded)

	// Other addresses are unaffected
	exceeded, err = s.limiter.CheckIPRateLimit(s.ctx, "10.0.0.2")
	s.Require().NoError(err)
	s.False(exceeded)
}

func (s *LimiterSuite) TestIPWindowResets() {
	for i := 0; i < ipMaxRequests; i++ {
		s.Require().NoError(s.limiter.RecordIPRequest(s.ctx, "10.0.0.1"))
	}

	s.mr.FastForward(ipWindow + time.Minute)

	exceeded, err := s.limiter.CheckIPRateLimit(s.ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.False(exceeded)
}

func (s *LimiterSuite) TestPurposesAreIndependent() {
	for i := 0; i < ipMaxRequests; i++ {
		s.Require().NoError(s.limiter.RecordIPRequestWithPurpose(s.ctx, "10.0.0.1", "login"))
	}

	exceeded, err := s.limiter.CheckIPRateLimitWithPurpose(s.ctx, "10.0.0.1", "login")
	s.Require().NoError(err)
	s.True(exceeded)

	exceeded, err = s.limiter.CheckIPRateLimitWithPurpose(s.ctx, "10.0.0.1", "register")
	s.Require().NoError(err)
	s.False(exceeded)
}

func (s *LimiterSuite) TestEmailCooldown() {
	onCooldown, err := s.limiter.CheckEmailCooldown(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.False(onCooldown)

	s.Require().NoError(s.limiter.SetEmailCooldown(s.ctx, "ana@example.com"))

	onCooldown, err = s.limiter.CheckEmailCooldown(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.True(onCooldown)

	s.mr.FastForward(emailCooldown + time.Second)

	onCooldown, err = s.limiter.CheckEmailCooldown(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.False(onCooldown)
}
