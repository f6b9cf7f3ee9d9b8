package labapi

import (
	"context"
	"net/http"
	"net/url"

	"environovalab/session"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Msg      string `json:"msg"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func (r LoginResult) Session() session.Session {
	return session.SignedIn(r.Username, session.RoleFromIsAdmin(r.IsAdmin))
}

// Login establishes the API session cookie. Bad credentials come back as a *RejectedError.
func (c *Client) Login(ctx context.Context, credentials Credentials) (LoginResult, error) {
	var result LoginResult
	if err := c.Mutate(ctx, http.MethodPost, "/api/login/", credentials, &result); err != nil {
		return LoginResult{}, err
	}
	if result.Username == "" {
		result.Username = credentials.Username
	}
	return result, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Mutate(ctx, http.MethodPost, "/api/logout/", nil, nil)
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, registration Registration) (string, error) {
	return c.mutateForMessage(ctx, http.MethodPost, "/api/register/", registration)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	body := map[string]string{"email": email}
	return c.mutateForMessage(ctx, http.MethodPost, "/api/auth/forgot-password/", body)
}

func (c *Client) ResetPassword(ctx context.Context, token string, password string) (string, error) {
	path := "/api/auth/reset-password/" + url.PathEscape(token) + "/"
	body := map[string]string{"password": password}
	return c.mutateForMessage(ctx, http.MethodPost, path, body)
}

// The account endpoints answer {"msg": ...}; an empty body is fine too
func (c *Client) mutateForMessage(ctx context.Context, method, path string, body any) (string, error) {
	c.Prime(ctx)
	resp, err := c.Send(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	if len(resp.Body) == 0 {
		return "", nil
	}
	var message MessageResponse
	if err := resp.decode(method, path, &message); err != nil {
		return "", err
	}
	return message.Text(), nil
}
