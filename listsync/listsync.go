// Package listsync keeps a displayed list equal to what the server returns. After every successful
// write the whole collection is fetched again and replaces the old one; a failed write leaves it
// as it was.
package listsync

import (
	"context"

	"environovalab/labapi"
	"environovalab/log"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is the transient message shown above a list after an action
type Notice struct {
	Kind NoticeKind
	Text string
}

func (n Notice) IsZero() bool {
	return n.Text == ""
}

func Success(text string) Notice {
	return Notice{Kind: NoticeSuccess, Text: text}
}

func Info(text string) Notice {
	return Notice{Kind: NoticeInfo, Text: text}
}

// Failure describes an API error the way the user should see it
func Failure(err error) Notice {
	return Notice{Kind: NoticeError, Text: labapi.UserMessage(err)}
}

type Fetcher[T any] func(ctx context.Context) ([]T, error)

type Mutation func(ctx context.Context) error

type Collection[T any] struct {
	Items  []T
	Notice Notice
	Err    error

	fetch  Fetcher[T]
	logger log.Logger
}

func New[T any](fetch Fetcher[T], logger log.Logger) *Collection[T] {
	return &Collection[T]{
		Items:  nil,
		Notice: Notice{},
		Err:    nil,
		fetch:  fetch,
		logger: logger,
	}
}

// Load replaces the items with a fresh read. On failure the items stay as they were.
func (c *Collection[T]) Load(ctx context.Context) error {
	items, err := c.fetch(ctx)
	if err != nil {
		c.Err = err
		c.Notice = Failure(err)
		c.logger.Info().Err(err).Msg("Collection load failed")
		return err
	}
	if items == nil {
		items = []T{}
	}
	c.Items = items
	c.Err = nil
	return nil
}

// Apply runs one write and, only if it went through, refetches the collection. The returned error
// is the write's error; a failed refetch after a good write keeps the old items and says so in the
// notice.
func (c *Collection[T]) Apply(ctx context.Context, mutation Mutation, success string) error {
	return c.apply(ctx, mutation, func() string { return success })
}

type MessageMutation func(ctx context.Context) (string, error)

// ApplyMessage is Apply for writes that answer with their own success text. fallback is shown
// when the answer has none.
func (c *Collection[T]) ApplyMessage(ctx context.Context, mutation MessageMutation, fallback string) error {
	message := fallback
	return c.apply(
		ctx,
		func(ctx context.Context) error {
			text, err := mutation(ctx)
			if text != "" {
				message = text
			}
			return err
		},
		func() string { return message },
	)
}

func (c *Collection[T]) apply(ctx context.Context, mutation Mutation, success func() string) error {
	if err := mutation(ctx); err != nil {
		c.Err = err
		c.Notice = Failure(err)
		c.logger.Info().
			Str("reason", labapi.Reason(err).String()).
			Err(err).
			Msg("Mutation failed, list unchanged")
		return err
	}

	items, err := c.fetch(ctx)
	if err != nil {
		c.Err = err
		c.Notice = Notice{
			Kind: NoticeError,
			Text: success() + ". No se pudo actualizar la lista: " + labapi.UserMessage(err),
		}
		c.logger.Warn().Err(err).Msg("Refresh after mutation failed")
		return nil
	}
	if items == nil {
		items = []T{}
	}
	c.Items = items
	c.Err = nil
	c.Notice = Success(success())
	return nil
}

// Reject sets a notice without touching the server or the items, e.g. when validation fails
func (c *Collection[T]) Reject(text string) {
	c.Notice = Notice{Kind: NoticeError, Text: text}
}
