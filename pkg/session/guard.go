package session

// Decision is the route guard's verdict for a navigation target.
type Decision int

const (
	// Wait means the session is still resolving: render a neutral
	// placeholder, never redirect. Avoids a flash-redirect to login
	// during startup.
	Wait Decision = iota
	// RedirectLogin means the caller is not authenticated.
	RedirectLogin
	// RedirectHome means the caller is authenticated but lacks a
	// required role: send them to the default landing page.
	RedirectHome
	// Render means the target may be shown.
	Render
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Evaluate decides whether a target may render given the session snapshot
// and the target's required roles. An empty role set means any authenticated
// user may render. Pure function: same input, same decision.
func Evaluate(snap Snapshot, requiredRoles ...string) Decision {
	if snap.Loading {
		return Wait
	}
	if !snap.IsAuthenticated() {
		return RedirectLogin
	}
	if len(requiredRoles) == 0 {
		return Render
	}
	for _, role := range requiredRoles {
		if snap.User.Role == role {
			return Render
		}
	}
	return RedirectHome
}
