package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	alice := newTestSession("alice")

	replaced, err := r.Register(alice, Supersede)
	require.NoError(t, err)
	require.Nil(t, replaced)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	require.Same(t, alice, got)

	_, ok = r.Lookup("bob")
	require.False(t, ok)
}

func TestRegistryDuplicatePolicies(t *testing.T) {
	tests := []struct {
		name       string
		policy     DuplicatePolicy
		closeFirst bool
		wantErr    error
		wantNew    bool
	}{
		{name: "supersede live", policy: Supersede, wantNew: true},
		{name: "reject live", policy: Reject, wantErr: ErrDuplicateUsername},
		{name: "reject stale", policy: Reject, closeFirst: true, wantNew: true},
		{name: "supersede stale", policy: Supersede, closeFirst: true, wantNew: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			first := newTestSession("alice")
			_, err := r.Register(first, tt.policy)
			require.NoError(t, err)
			if tt.closeFirst {
				first.Close(nil)
			}

			second := newTestSession("alice")
			replaced, err := r.Register(second, tt.policy)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				got, _ := r.Lookup("alice")
				require.Same(t, first, got)
				return
			}
			require.NoError(t, err)
			require.Same(t, first, replaced)

			got, _ := r.Lookup("alice")
			require.Same(t, second, got)
			require.Equal(t, tt.wantNew, got == second)
		})
	}
}

func TestRegistryUnregisterIsIdempotentAndOwnerOnly(t *testing.T) {
	r := NewRegistry()
	old := newTestSession("alice")
	fresh := newTestSession("alice")

	_, _ = r.Register(old, Supersede)
	_, _ = r.Register(fresh, Supersede)

	require.False(t, r.Unregister(old))
	got, ok := r.Lookup("alice")
	require.True(t, ok)
	require.Same(t, fresh, got)

	require.True(t, r.Unregister(fresh))
	require.False(t, r.Unregister(fresh))
	require.Zero(t, r.Len())
}

func TestRegistryUsernamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"carol", "alice", "bob"} {
		_, err := r.Register(newTestSession(n), Supersede)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"alice", "bob", "carol"}, r.Usernames())
	require.Len(t, r.Sessions(), 3)
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	require.Equal(t, Supersede, p)

	p, err = ParseDuplicatePolicy(" REJECT ")
	require.NoError(t, err)
	require.Equal(t, Reject, p)

	_, err = ParseDuplicatePolicy("queue")
	require.Error(t, err)
}
