package labapi

import (
	"context"
	"net/http"
)

type User struct {
	Id       ObjectId `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	IsAdmin  bool     `json:"is_admin"`
	Active   bool     `json:"activo"`
}

type NewUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type Users struct {
	Resource[User]
}

func (c *Client) Users() Users {
	return Users{newResource[User](c, "/api/auth/admin/users/")}
}

// The admin endpoint answers {"msg": ...} rather than the created user
func (u Users) Create(ctx context.Context, user NewUser) (string, error) {
	return u.client.mutateForMessage(ctx, http.MethodPost, u.path, user)
}

func (u Users) UpdateRole(ctx context.Context, userId ObjectId, isAdmin bool) (string, error) {
	body := map[string]bool{"is_admin": isAdmin}
	return u.client.mutateForMessage(ctx, http.MethodPost, u.itemPath(userId, "update_role"), body)
}

func (u Users) ToggleActive(ctx context.Context, userId ObjectId) (string, error) {
	return u.client.mutateForMessage(ctx, http.MethodPost, u.itemPath(userId, "toggle_active"), nil)
}
