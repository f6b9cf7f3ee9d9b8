package labapi

import (
	"context"
	"net/http"
	"net/url"
)

// Resource is a REST collection under /api/ with the usual list/create/update/delete endpoints
type Resource[T any] struct {
	client *Client
	path   string
}

func newResource[T any](client *Client, path string) Resource[T] {
	return Resource[T]{
		client: client,
		path:   path,
	}
}

func (r Resource[T]) Path() string {
	return r.path
}

func (r Resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.Fetch(ctx, r.path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r Resource[T]) Get(ctx context.Context, id ObjectId) (T, error) {
	var item T
	err := r.client.Fetch(ctx, r.itemPath(id), &item)
	return item, err
}

func (r Resource[T]) Create(ctx context.Context, body any) (T, error) {
	var item T
	err := r.client.Mutate(ctx, http.MethodPost, r.path, body, &item)
	return item, err
}

func (r Resource[T]) Update(ctx context.Context, id ObjectId, body any) (T, error) {
	var item T
	err := r.client.Mutate(ctx, http.MethodPut, r.itemPath(id), body, &item)
	return item, err
}

func (r Resource[T]) Delete(ctx context.Context, id ObjectId) error {
	return r.client.Mutate(ctx, http.MethodDelete, r.itemPath(id), nil, nil)
}

func (r Resource[T]) itemPath(id ObjectId, action ...string) string {
	path := r.path + url.PathEscape(string(id)) + "/"
	for _, a := range action {
		path += a + "/"
	}
	return path
}

func (r Resource[T]) searchPath(query string) string {
	return r.path + "search/?" + url.Values{"q": {query}}.Encode()
}

// Search endpoints answer nothing useful below this length, so the request is skipped
const minSearchLength = 2

func search[T any](ctx context.Context, r Resource[T], query string) ([]T, error) {
	if len([]rune(query)) < minSearchLength {
		return []T{}, nil
	}
	var items []T
	if err := r.client.Fetch(ctx, r.searchPath(query), &items); err != nil {
		return nil, err
	}
	return items, nil
}

type MessageResponse struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

func (m MessageResponse) Text() string {
	if m.Msg != "" {
		return m.Msg
	}
	return m.Message
}
