package token

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trellis/pkg/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	eng, err := storage.OpenBadger(storage.BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return NewService(eng)
}

func TestIssueRedeem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, "write")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	ok, err := svc.Redeem(ctx, tok, "write")
	require.NoError(t, err)
	assert.True(t, ok, "first redemption grants")
}

func TestRedeem_SingleUse(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, "write")
	require.NoError(t, err)

	ok, err := svc.Redeem(ctx, tok, "write")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Redeem(ctx, tok, "write")
	require.NoError(t, err)
	assert.False(t, ok, "second redemption of the same token is denied")
}

func TestRedeem_PermissionMismatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, "read")
	require.NoError(t, err)

	ok, err := svc.Redeem(ctx, tok, "write")
	require.NoError(t, err)
	assert.False(t, ok, "mismatched permission is denied")

	// The mismatch must not consume the token.
	ok, err = svc.Redeem(ctx, tok, "read")
	require.NoError(t, err)
	assert.True(t, ok, "token still redeemable for its own permission")
}

func TestRedeem_UnknownToken(t *testing.T) {
	svc := newTestService(t)

	ok, err := svc.Redeem(context.Background(), "no-such-token", "write")
	require.NoError(t, err, "unknown token is a denial, not a fault")
	assert.False(t, ok)
}

func TestRedeem_EmptyInputs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ok, err := svc.Redeem(ctx, "", "write")
	require.NoError(t, err)
	assert.False(t, ok)

	tok, err := svc.Issue(ctx, "write")
	require.NoError(t, err)
	ok, err = svc.Redeem(ctx, tok, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIssue_EmptyPermission(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Issue(context.Background(), "")
	assert.Error(t, err)
}

func TestIssue_UniqueTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := svc.Issue(ctx, "write")
		require.NoError(t, err)
		assert.False(t, seen[tok], "token %s issued twice", tok)
		seen[tok] = true
	}
}

// Concurrent redeemers race for one token; the atomic read-compare-delete
// must grant exactly one of them.
func TestRedeem_ConcurrentSingleWinner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, "write")
	require.NoError(t, err)

	const racers = 16
	var wg sync.WaitGroup
	grants := make(chan bool, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.Redeem(ctx, tok, "write")
			if err == nil && ok {
				grants <- true
			}
		}()
	}
	wg.Wait()
	close(grants)

	won := 0
	for range grants {
		won++
	}
	assert.Equal(t, 1, won, "exactly one racer wins the token")
}
