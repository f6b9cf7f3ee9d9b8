//go:build e2etesting

package e2etest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardRedirectsToLogin(t *testing.T) {
	browser := launchBrowser(t)

	page := visit(browser, "/proformas")
	require.True(t, strings.HasSuffix(page.MustInfo().URL, "/login?redirect=%2Fproformas"))
}

func TestLoginRejected(t *testing.T) {
	browser := launchBrowser(t)

	page := visit(browser, "/login")
	page.MustElement("#username").MustInput("nobody-e2e")
	page.MustElement("#password").MustInput("wrong")
	page.MustElement("#login").MustClick()
	page.MustWaitLoad()
	require.NotEmpty(t, noticeText(page))
	require.True(t, strings.HasSuffix(page.MustInfo().URL, "/login"))
}

func TestLoginLogout(t *testing.T) {
	user := mustCredentials(t, "E2E_USER")
	browser := launchBrowser(t)

	page := mustLogin(browser, user)
	require.Contains(t, page.MustElement("#greeting").MustText(), user.Username)
	require.False(t, page.MustHas("#nav-users"))

	page.MustElement("#logout").MustClick()
	page.MustWaitLoad()
	require.True(t, strings.HasSuffix(page.MustInfo().URL, "/login"))

	page = visit(browser, "/dashboard")
	require.Contains(t, page.MustInfo().URL, "/login?redirect=")
}
