package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	type Test struct {
		Description      string
		Session          Session
		Capability       Capability
		ExpectedDecision Decision
	}
	tests := []Test{
		{
			Description:      "zero session, no capability",
			Session:          Session{}, //nolint:exhaustruct
			Capability:       CapabilityNone,
			ExpectedDecision: RedirectLogin,
		},
		{
			Description:      "zero session, admin",
			Session:          Session{}, //nolint:exhaustruct
			Capability:       CapabilityAdmin,
			ExpectedDecision: RedirectLogin,
		},
		{
			Description:      "anonymous with admin role left over",
			Session:          Session{Authenticated: false, Role: RoleAdmin, DisplayName: "ana"},
			Capability:       CapabilityAdmin,
			ExpectedDecision: RedirectLogin,
		},
		{
			Description:      "anonymous with name left over",
			Session:          Session{Authenticated: false, Role: RoleUser, DisplayName: "ana"},
			Capability:       CapabilityNone,
			ExpectedDecision: RedirectLogin,
		},
		{
			Description:      "user, no capability",
			Session:          SignedIn("ana", RoleUser),
			Capability:       CapabilityNone,
			ExpectedDecision: Render,
		},
		{
			Description:      "user, admin",
			Session:          SignedIn("ana", RoleUser),
			Capability:       CapabilityAdmin,
			ExpectedDecision: RedirectDashboard,
		},
		{
			Description:      "empty role counts as user",
			Session:          Session{Authenticated: true, Role: "", DisplayName: "ana"},
			Capability:       CapabilityAdmin,
			ExpectedDecision: RedirectDashboard,
		},
		{
			Description:      "admin, no capability",
			Session:          SignedIn("root", RoleAdmin),
			Capability:       CapabilityNone,
			ExpectedDecision: Render,
		},
		{
			Description:      "admin, admin",
			Session:          SignedIn("root", RoleAdmin),
			Capability:       CapabilityAdmin,
			ExpectedDecision: Render,
		},
	}

	for _, tc := range tests {
		before := tc.Session
		decision := Guard(tc.Session, tc.Capability)
		require.Equal(t, tc.ExpectedDecision, decision, tc.Description)
		require.Equal(t, before, tc.Session, tc.Description)
	}
}

func TestParseRole(t *testing.T) {
	require.Equal(t, RoleAdmin, ParseRole("admin"))
	require.Equal(t, RoleUser, ParseRole("user"))
	require.Equal(t, RoleUser, ParseRole(""))
	require.Equal(t, RoleUser, ParseRole("Admin"))
}

func TestIsSelf(t *testing.T) {
	s := SignedIn("ana", RoleAdmin)
	require.True(t, s.IsSelf("ana"))
	require.False(t, s.IsSelf("bob"))
	require.False(t, Anonymous().IsSelf(""))
}
