package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type capturingSender struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (c *capturingSender) SendVerificationToken(_ context.Context, identifier, token string, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		c.tokens = map[string]string{}
	}
	c.tokens[identifier] = token
	return nil
}

func (c *capturingSender) token(identifier string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens[identifier]
}

func TestVerificationTokens(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	sender := &capturingSender{}
	svc := &VerificationService{Store: newTestStore(t), Sender: sender, TTL: time.Hour, Now: clock.Now}

	t.Run("single use", func(t *testing.T) {
		expires, err := svc.Issue(ctx, "Alice@Example.com")
		require.NoError(t, err)
		require.Equal(t, clock.Now().Add(time.Hour), expires)

		tok := sender.token("alice@example.com")
		require.NotEmpty(t, tok)

		require.ErrorIs(t, svc.Redeem(ctx, "alice@example.com", "wrong"), ErrTokenNotFound)
		require.NoError(t, svc.Redeem(ctx, "ALICE@example.com", tok))
		require.ErrorIs(t, svc.Redeem(ctx, "alice@example.com", tok), ErrTokenNotFound)
	})

	t.Run("expired tokens are consumed and rejected", func(t *testing.T) {
		_, err := svc.Issue(ctx, "bob@example.com")
		require.NoError(t, err)
		tok := sender.token("bob@example.com")

		clock.Advance(time.Hour)
		require.ErrorIs(t, svc.Redeem(ctx, "bob@example.com", tok), ErrTokenExpired)
		require.ErrorIs(t, svc.Redeem(ctx, "bob@example.com", tok), ErrTokenNotFound)
	})

	t.Run("concurrent redeemers", func(t *testing.T) {
		_, err := svc.Issue(ctx, "carol@example.com")
		require.NoError(t, err)
		tok := sender.token("carol@example.com")

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if svc.Redeem(ctx, "carol@example.com", tok) == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), wins.Load())
	})

	t.Run("identifier must be an email", func(t *testing.T) {
		_, err := svc.Issue(ctx, "nope")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, "identifier")
	})
}
