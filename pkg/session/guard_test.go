package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	courier := &User{ID: "u1", Role: "courier"}
	admin := &User{ID: "u2", Role: "admin"}
	customer := &User{ID: "u3", Role: "customer"}

	tests := []struct {
		name  string
		snap  Snapshot
		roles []string
		want  Decision
	}{
		{
			name: "loading never redirects",
			snap: Snapshot{Loading: true},
			want: Wait,
		},
		{
			name:  "loading with an authenticated user still waits",
			snap:  Snapshot{Loading: true, User: admin},
			roles: []string{"admin"},
			want:  Wait,
		},
		{
			name: "resolved and anonymous",
			snap: Snapshot{},
			want: RedirectLogin,
		},
		{
			name:  "wrong role goes home",
			snap:  Snapshot{User: courier},
			roles: []string{"admin"},
			want:  RedirectHome,
		},
		{
			name:  "matching role renders",
			snap:  Snapshot{User: admin},
			roles: []string{"admin"},
			want:  Render,
		},
		{
			name:  "any of several roles suffices",
			snap:  Snapshot{User: courier},
			roles: []string{"admin", "courier"},
			want:  Render,
		},
		{
			name: "no required roles renders for any authenticated user",
			snap: Snapshot{User: customer},
			want: Render,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.snap, tt.roles...)
			require.Equal(t, tt.want, got)

			// Pure function: evaluating again yields the same decision.
			require.Equal(t, got, Evaluate(tt.snap, tt.roles...))
		})
	}
}
