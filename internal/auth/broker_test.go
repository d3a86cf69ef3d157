package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, *time.Time) {
	t.Helper()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	b := NewBroker(setupTestDB(t), 60*time.Second).WithClock(func() time.Time { return now })
	return b, &now
}

func TestBrokerRedeemOnce(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	code, err := b.Issue(ctx, "U1")
	require.NoError(t, err)

	guid, err := b.Redeem(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "U1", guid)

	_, err = b.Redeem(ctx, code)
	assert.ErrorIs(t, err, ErrCodeAlreadyUsed)
}

func TestBrokerExpiry(t *testing.T) {
	testCases := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "redeemed after 59s", elapsed: 59 * time.Second},
		{name: "redeemed at exactly 60s", elapsed: 60 * time.Second},
		{name: "redeemed after 61s", elapsed: 61 * time.Second, wantErr: ErrCodeExpired},
		{name: "redeemed an hour later", elapsed: time.Hour, wantErr: ErrCodeExpired},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			b, now := newTestBroker(t)
			ctx := context.Background()

			code, err := b.Issue(ctx, "U1")
			require.NoError(t, err)

			*now = now.Add(tt.elapsed)
			guid, err := b.Redeem(ctx, code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, guid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "U1", guid)
		})
	}
}

func TestBrokerUnknownCode(t *testing.T) {
	b, _ := newTestBroker(t)

	for _, code := range []string{"", "does-not-exist"} {
		_, err := b.Redeem(context.Background(), code)
		assert.ErrorIs(t, err, ErrCodeNotFound)
		assert.True(t, IsCodeMisuse(err))
	}
}

func TestBrokerCodesAreLongAndUnique(t *testing.T) {
	b, _ := newTestBroker(t)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := b.Issue(context.Background(), "U1")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(code), 22, "at least 128 bits of entropy")
		assert.False(t, seen[code])
		seen[code] = true
	}
}

func TestBrokerConcurrentRedeem(t *testing.T) {
	b, _ := newTestBroker(t)
	code, err := b.Issue(context.Background(), "U1")
	require.NoError(t, err)

	const attempts = 10
	var successes, alreadyUsed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Redeem(context.Background(), code)
			switch {
			case err == nil:
				successes.Add(1)
			case assert.ErrorIs(t, err, ErrCodeAlreadyUsed):
				alreadyUsed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(attempts-1), alreadyUsed.Load())
}

func TestBrokerReplayAfterAnotherLogin(t *testing.T) {
	b, now := newTestBroker(t)
	ctx := context.Background()

	code, err := b.Issue(ctx, "U1")
	require.NoError(t, err)
	_, err = b.Redeem(ctx, code)
	require.NoError(t, err)

	*now = now.Add(10 * time.Second)
	_, err = b.Issue(ctx, "U2")
	require.NoError(t, err)

	_, err = b.Redeem(ctx, code)
	assert.ErrorIs(t, err, ErrCodeAlreadyUsed)
}

func TestBrokerPurgeExpired(t *testing.T) {
	b, now := newTestBroker(t)
	ctx := context.Background()

	used, err := b.Issue(ctx, "U1")
	require.NoError(t, err)
	_, err = b.Redeem(ctx, used)
	require.NoError(t, err)

	_, err = b.Issue(ctx, "U1")
	require.NoError(t, err)

	*now = now.Add(30 * time.Second)
	recentlyUsed, err := b.Issue(ctx, "U3")
	require.NoError(t, err)
	_, err = b.Redeem(ctx, recentlyUsed)
	require.NoError(t, err)

	*now = now.Add(90 * time.Second)
	fresh, err := b.Issue(ctx, "U2")
	require.NoError(t, err)

	var remaining []models.ExchangeCode
	require.NoError(t, b.db.Order("created_at").Find(&remaining).Error)
	require.Len(t, remaining, 2, "only codes past their TTL are purged")
	assert.Equal(t, recentlyUsed, remaining[0].Code)
	assert.True(t, remaining[0].Consumed)
	assert.Equal(t, fresh, remaining[1].Code)
}
