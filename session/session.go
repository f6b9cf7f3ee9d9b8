// Package session holds the signed-in state of a user of the front end and the
// single capability check that every page and command goes through.
package session

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole treats anything that isn't exactly "admin" as a regular user
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

func RoleFromIsAdmin(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// The zero value is the anonymous session.
type Session struct {
	Authenticated bool
	Role          Role
	DisplayName   string
}

func Anonymous() Session {
	return Session{
		Authenticated: false,
		Role:          RoleUser,
		DisplayName:   "",
	}
}

func SignedIn(displayName string, role Role) Session {
	return Session{
		Authenticated: true,
		Role:          role,
		DisplayName:   displayName,
	}
}

func (s Session) IsAdmin() bool {
	return s.Authenticated && s.Role == RoleAdmin
}

// IsSelf reports whether username names the signed-in user
func (s Session) IsSelf(username string) bool {
	return s.Authenticated && s.DisplayName != "" && s.DisplayName == username
}

type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityAdmin
)

func (c Capability) String() string {
	switch c {
	case CapabilityNone:
		return "none"
	case CapabilityAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Allows is the only place that decides what a session may do. An anonymous session is allowed
// nothing, not even CapabilityNone.
func Allows(s Session, capability Capability) bool {
	if !s.Authenticated {
		return false
	}
	switch capability {
	case CapabilityNone:
		return true
	case CapabilityAdmin:
		return s.Role == RoleAdmin
	default:
		return false
	}
}

type Decision int

const (
	Render Decision = iota
	RedirectLogin
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDashboard:
		return "redirect_dashboard"
	default:
		return "unknown"
	}
}

// Guard decides whether a protected view may render. It never changes the session.
func Guard(s Session, capability Capability) Decision {
	if !s.Authenticated {
		return RedirectLogin
	}
	if !Allows(s, capability) {
		return RedirectDashboard
	}
	return Render
}
