//go:build e2etesting

package e2etest

import (
	"fmt"
	"os"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// The site must be running locally against a lab API that has these accounts
const siteUrl = "http://localhost:3000"

type credentials struct {
	Username string
	Password string
}

func mustCredentials(t *testing.T, prefix string) credentials {
	username := os.Getenv(prefix + "_USER")
	password := os.Getenv(prefix + "_PASSWORD")
	if username == "" || password == "" {
		t.Skipf("%s_USER and %s_PASSWORD are not set", prefix, prefix)
	}
	return credentials{Username: username, Password: password}
}

func launchBrowser(t *testing.T) *rod.Browser {
	l := launcher.New().Headless(os.Getenv("E2E_HEADFUL") == "")
	t.Cleanup(l.Cleanup)
	browserUrl := l.MustLaunch()

	browser := rod.New().ControlURL(browserUrl).MustConnect()
	t.Cleanup(browser.MustClose)
	return browser
}

func visit(browser *rod.Browser, path string) *rod.Page {
	page := browser.MustPage(fmt.Sprintf("%s%s", siteUrl, path))
	page.MustWaitLoad()
	return page
}

func mustLogin(browser *rod.Browser, c credentials) *rod.Page {
	page := visit(browser, "/login")
	page.MustElement("#username").MustInput(c.Username)
	page.MustElement("#password").MustInput(c.Password)
	page.MustElement("#login").MustClick()
	page.MustWaitLoad()
	page.MustElement("#greeting")
	return page
}

func noticeText(page *rod.Page) string {
	return page.MustElement("#notice").MustText()
}
