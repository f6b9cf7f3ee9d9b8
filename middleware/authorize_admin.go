package middleware

import (
	"environovalab/session"
)

// Non-admins get bounced to the dashboard, anonymous visitors to the login page
var AuthorizeAdmin = Authorize(session.CapabilityAdmin)
