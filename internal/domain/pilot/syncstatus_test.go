package pilot

import (
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkSynced(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		current SyncStatus
		wantErr bool
	}{
		{name: "from not synced", current: NotSynced{}},
		{name: "from sync failed", current: SyncFailed{Reason: FailureReason{Code: "X"}, FailedAt: at, Attempts: 2}},
		{name: "from synced", current: Synced{ExternalID: "gid://shopify/Product/1", SyncedAt: at}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarkSynced(tt.current, "gid://shopify/Product/2", at)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.current, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Synced{ExternalID: "gid://shopify/Product/2", SyncedAt: at}, got)
		})
	}
}

func TestMarkFailed(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	reason := FailureReason{Code: "SHOPIFY_API_ERROR", Message: "boom"}

	got, err := MarkFailed(NotSynced{}, reason, at)
	require.NoError(t, err)
	assert.Equal(t, SyncFailed{Reason: reason, FailedAt: at, Attempts: 1}, got)

	later := at.Add(time.Minute)
	got, err = MarkFailed(got, reason, later)
	require.NoError(t, err)
	assert.Equal(t, SyncFailed{Reason: reason, FailedAt: later, Attempts: 2}, got)

	_, err = MarkFailed(Synced{ExternalID: "x", SyncedAt: at}, reason, at)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReset(t *testing.T) {
	at := time.Now()

	_, err := Reset(NotSynced{})
	require.ErrorIs(t, err, ErrInvalidTransition)

	for _, s := range []SyncStatus{
		Synced{ExternalID: "x", SyncedAt: at},
		SyncFailed{Attempts: 3, FailedAt: at},
	} {
		got, err := Reset(s)
		require.NoError(t, err)
		assert.Equal(t, NotSynced{}, got)
	}
}

func TestAttemptsSurviveUntilReset(t *testing.T) {
	at := time.Now()
	s, err := MarkFailed(NotSynced{}, FailureReason{}, at)
	require.NoError(t, err)
	s, err = MarkFailed(s, FailureReason{}, at)
	require.NoError(t, err)

	s, err = MarkSynced(s, "x", at)
	require.NoError(t, err)
	s, err = Reset(s)
	require.NoError(t, err)

	s, err = MarkFailed(s, FailureReason{}, at)
	require.NoError(t, err)
	assert.Equal(t, 1, s.(SyncFailed).Attempts)
}

func TestGuards(t *testing.T) {
	tests := []struct {
		status   SyncStatus
		canSync  bool
		canReset bool
		name     string
	}{
		{status: NotSynced{}, canSync: true, canReset: false, name: "NotSynced"},
		{status: Synced{}, canSync: false, canReset: true, name: "Synced"},
		{status: SyncFailed{Attempts: 1}, canSync: true, canReset: true, name: "SyncFailed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canSync, CanSync(tt.status))
			assert.Equal(t, tt.canReset, CanReset(tt.status))
			assert.Equal(t, tt.name, SyncStatusName(tt.status))
		})
	}
}

func TestInvalidTransitionMessage(t *testing.T) {
	_, err := MarkSynced(Synced{}, "x", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "mark synced from Synced")
}
