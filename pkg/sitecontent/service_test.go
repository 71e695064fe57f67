package sitecontent_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/repo/memory"
)

// fakeClock advances one second per call so timestamps strictly increase.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T, opts ...sitecontent.Option) sitecontent.Service {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	base := []sitecontent.Option{
		sitecontent.WithRepository(memory.New()),
		sitecontent.WithClock(clock.Now),
	}
	svc, err := sitecontent.New(append(base, opts...)...)
	require.NoError(t, err)
	return svc
}

func createReq(typ sitecontent.ContentType, slug string) sitecontent.CreateItemRequest {
	return sitecontent.CreateItemRequest{
		Type:    typ,
		Title:   strings.ToUpper(slug),
		Slug:    slug,
		Content: map[string]any{"body": "text about " + slug},
	}
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []sitecontent.Option
		expectError bool
	}{
		{name: "no options should fail", options: nil, expectError: true},
		{name: "with repository should succeed", options: []sitecontent.Option{sitecontent.WithRepository(memory.New())}},
		{
			name: "with every option should succeed",
			options: []sitecontent.Option{
				sitecontent.WithRepository(memory.New()),
				sitecontent.WithEventSink(sitecontent.NewLoggingEventSink(zap.NewNop())),
				sitecontent.WithHooks(&sitecontent.Hooks{}),
				sitecontent.WithLogger(zap.NewNop()),
				sitecontent.WithClock(time.Now),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := sitecontent.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id timestamps and default status", func(t *testing.T) {
		svc := newTestService(t)
		item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePost, "hello-world"))
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(item.ID, "post_hello-world_"), item.ID)
		assert.Equal(t, sitecontent.ContentStatusDraft, item.Status)
		assert.Equal(t, "2024-03-01T12:00:01.000Z", item.CreatedAt)
		assert.Equal(t, item.CreatedAt, item.UpdatedAt)

		got, err := svc.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("keeps explicit status and metadata", func(t *testing.T) {
		svc := newTestService(t)
		req := createReq(sitecontent.ContentTypeService, "design")
		req.Status = sitecontent.ContentStatusPublished
		req.Metadata = map[string]any{"order": float64(2)}

		item, err := svc.CreateItem(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, sitecontent.ContentStatusPublished, item.Status)
		assert.Equal(t, float64(2), item.Metadata["order"])
	})

	t.Run("same type and slug in the same millisecond get distinct ids", func(t *testing.T) {
		frozen := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		svc, err := sitecontent.New(
			sitecontent.WithRepository(memory.New()),
			sitecontent.WithClock(func() time.Time { return frozen }),
		)
		require.NoError(t, err)

		a, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "home"))
		require.NoError(t, err)
		b, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "home"))
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("validation failure lists all fields and stores nothing", func(t *testing.T) {
		repo := memory.New()
		svc := newTestService(t, sitecontent.WithRepository(repo))

		_, err := svc.CreateItem(ctx, sitecontent.CreateItemRequest{Type: "blog"})
		require.Error(t, err)
		assert.Equal(t, sitecontent.CategoryValidation, sitecontent.Category(err))

		var verr *sitecontent.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 4)

		items, err := repo.Scan(ctx, sitecontent.Filter{})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("duplicate id is reported as duplicate", func(t *testing.T) {
		svc := newTestService(t, sitecontent.WithIDGenerator(fixedID("page_same_1")))
		_, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "same"))
		require.NoError(t, err)

		_, err = svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "same"))
		assert.ErrorIs(t, err, sitecontent.ErrDuplicateKey)
		assert.Equal(t, sitecontent.CategoryDuplicate, sitecontent.Category(err))
	})

	t.Run("generated record is checked before it is stored", func(t *testing.T) {
		repo := memory.New()
		svc := newTestService(t,
			sitecontent.WithRepository(repo),
			sitecontent.WithIDGenerator(fixedID("")),
		)

		_, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "no-id"))
		require.Error(t, err)
		assert.Equal(t, sitecontent.CategoryValidation, sitecontent.Category(err))

		var verr *sitecontent.ValidationError
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "id", verr.Fields[0].Field)

		items, err := repo.Scan(ctx, sitecontent.Filter{})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("caller mutations do not reach the store", func(t *testing.T) {
		svc := newTestService(t)
		req := createReq(sitecontent.ContentTypePage, "iso")
		item, err := svc.CreateItem(ctx, req)
		require.NoError(t, err)

		req.Content["body"] = "changed"
		item.Content["body"] = "changed too"
		got, err := svc.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "text about iso", got.Content["body"])
	})
}

type fixedID string

func (f fixedID) NewID(string, string) string { return string(f) }

func TestGetItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.GetItem(ctx, "page_missing_1")
	assert.Nil(t, item)
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)

	_, err = svc.GetItem(ctx, "")
	assert.Equal(t, sitecontent.CategoryValidation, sitecontent.Category(err))
}

func TestGetItemBySlug(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePost, "launch"))
	require.NoError(t, err)
	project, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypeProject, "launch"))
	require.NoError(t, err)

	t.Run("first match in scan order without type", func(t *testing.T) {
		got, err := svc.GetItemBySlug(ctx, "launch", nil)
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)
	})

	t.Run("type narrows the match", func(t *testing.T) {
		typ := sitecontent.ContentTypeProject
		got, err := svc.GetItemBySlug(ctx, "launch", &typ)
		require.NoError(t, err)
		assert.Equal(t, project.ID, got.ID)
	})

	t.Run("no match", func(t *testing.T) {
		typ := sitecontent.ContentTypePage
		_, err := svc.GetItemBySlug(ctx, "launch", &typ)
		assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	})

	t.Run("invalid type", func(t *testing.T) {
		typ := sitecontent.ContentType("blog")
		_, err := svc.GetItemBySlug(ctx, "launch", &typ)
		assert.Equal(t, sitecontent.CategoryValidation, sitecontent.Category(err))
	})
}

func TestListItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, req := range []sitecontent.CreateItemRequest{
		createReq(sitecontent.ContentTypePage, "home"),
		createReq(sitecontent.ContentTypePost, "first"),
		createReq(sitecontent.ContentTypePost, "second"),
	} {
		_, err := svc.CreateItem(ctx, req)
		require.NoError(t, err)
	}
	items, err := svc.ListItems(ctx, sitecontent.ListItemsRequest{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	_, err = sitecontent.Publish(ctx, svc, items[2].ID)
	require.NoError(t, err)

	typ := sitecontent.ContentTypePost
	published := sitecontent.ContentStatusPublished
	team := sitecontent.ContentTypeTeamMember

	tests := []struct {
		name  string
		req   sitecontent.ListItemsRequest
		slugs []string
	}{
		{"all", sitecontent.ListItemsRequest{}, []string{"home", "first", "second"}},
		{"by type", sitecontent.ListItemsRequest{Type: &typ}, []string{"first", "second"}},
		{"by status", sitecontent.ListItemsRequest{Status: &published}, []string{"second"}},
		{"by type and status", sitecontent.ListItemsRequest{Type: &typ, Status: &published}, []string{"second"}},
		{"empty result", sitecontent.ListItemsRequest{Type: &team}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.ListItems(ctx, tt.req)
			require.NoError(t, err)
			require.NotNil(t, items)
			slugs := make([]string, 0, len(items))
			for _, item := range items {
				slugs = append(slugs, item.Slug)
			}
			assert.Equal(t, tt.slugs, slugs)
		})
	}

	t.Run("published helper", func(t *testing.T) {
		posts, err := sitecontent.ListPublished(ctx, svc, sitecontent.ContentTypePost)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "second", posts[0].Slug)

		pages, err := sitecontent.ListPublished(ctx, svc, sitecontent.ContentTypePage)
		require.NoError(t, err)
		assert.Empty(t, pages)

		all, err := sitecontent.ListPublished(ctx, svc, "")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("invalid filter", func(t *testing.T) {
		bad := sitecontent.ContentStatus("live")
		_, err := svc.ListItems(ctx, sitecontent.ListItemsRequest{Status: &bad})
		assert.Equal(t, sitecontent.CategoryValidation, sitecontent.Category(err))
	})
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("merges supplied fields and refreshes updatedAt", func(t *testing.T) {
		svc := newTestService(t)
		item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "about"))
		require.NoError(t, err)

		title := "About Us"
		updated, err := svc.UpdateItem(ctx, item.ID, sitecontent.UpdateItemRequest{Title: &title})
		require.NoError(t, err)

		assert.Equal(t, "About Us", updated.Title)
		assert.Equal(t, item.Slug, updated.Slug)
		assert.Equal(t, item.Content, updated.Content)
		assert.Equal(t, item.CreatedAt, updated.CreatedAt)
		assert.Greater(t, updated.UpdatedAt, item.UpdatedAt)
	})

	t.Run("empty update still refreshes updatedAt", func(t *testing.T) {
		svc := newTestService(t)
		item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "empty"))
		require.NoError(t, err)

		updated, err := svc.UpdateItem(ctx, item.ID, sitecontent.UpdateItemRequest{})
		require.NoError(t, err)
		assert.Greater(t, updated.UpdatedAt, item.UpdatedAt)
		assert.Equal(t, item.Title, updated.Title)
	})

	t.Run("immediate updates advance updatedAt on the real clock", func(t *testing.T) {
		svc, err := sitecontent.New(sitecontent.WithRepository(memory.New()))
		require.NoError(t, err)

		for i := 0; i < 200; i++ {
			item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePost, "quick"))
			require.NoError(t, err)

			title := "Quick edit"
			updated, err := svc.UpdateItem(ctx, item.ID, sitecontent.UpdateItemRequest{Title: &title})
			require.NoError(t, err)
			require.Greater(t, updated.UpdatedAt, item.UpdatedAt, "iteration %d", i)

			again, err := svc.UpdateItem(ctx, item.ID, sitecontent.UpdateItemRequest{})
			require.NoError(t, err)
			require.Greater(t, again.UpdatedAt, updated.UpdatedAt, "iteration %d", i)
		}
	})

	t.Run("stalled clock still advances updatedAt", func(t *testing.T) {
		frozen := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		svc, err := sitecontent.New(
			sitecontent.WithRepository(memory.New()),
			sitecontent.WithClock(func() time.Time { return frozen }),
		)
		require.NoError(t, err)

		item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "frozen"))
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01T12:00:00.000Z", item.UpdatedAt)

		updated, err := svc.UpdateItem(ctx, item.ID, sitecontent.UpdateItemRequest{})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01T12:00:00.001Z", updated.UpdatedAt)
		assert.Equal(t, item.CreatedAt, updated.CreatedAt)
	})

	t.Run("missing item is not created", func(t *testing.T) {
		svc := newTestService(t)
		title := "x"
		_, err := svc.UpdateItem(ctx, "page_ghost_1", sitecontent.UpdateItemRequest{Title: &title})
		assert.ErrorIs(t, err, sitecontent.ErrNotFound)

		_, err = svc.GetItem(ctx, "page_ghost_1")
		assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	})

	t.Run("server-owned fields are rejected", func(t *testing.T) {
		svc := newTestService(t)
		item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "owned"))
		require.NoError(t, err)

		created := "2000-01-01T00:00:00.000Z"
		_, err = svc.UpdateItem(ctx, item.ID, sitecontent.UpdateItemRequest{CreatedAt: &created})
		assert.Equal(t, sitecontent.CategoryValidation, sitecontent.Category(err))

		got, err := svc.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.CreatedAt, got.CreatedAt)
	})

	t.Run("archive helper", func(t *testing.T) {
		svc := newTestService(t)
		item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypeProject, "old"))
		require.NoError(t, err)

		archived, err := sitecontent.Archive(ctx, svc, item.ID)
		require.NoError(t, err)
		assert.Equal(t, sitecontent.ContentStatusArchived, archived.Status)
	})
}

func TestDeleteItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypeTeamMember, "sam"))
	require.NoError(t, err)

	deleted, prior, err := svc.DeleteItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, item, prior)

	deleted, prior, err = svc.DeleteItem(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Nil(t, prior)

	_, err = svc.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
}

func TestBulkCreateItems(t *testing.T) {
	ctx := context.Background()

	t.Run("continues past failures and preserves order", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		svc := newTestService(t, sitecontent.WithLogger(zap.New(core)))

		reqs := []sitecontent.CreateItemRequest{
			createReq(sitecontent.ContentTypePage, "one"),
			{Type: "blog", Title: "bad"},
			createReq(sitecontent.ContentTypePost, "three"),
		}
		result, err := svc.BulkCreateItems(ctx, reqs)
		require.NoError(t, err)
		require.Len(t, result.Outcomes, 3)

		created := result.Created()
		require.Len(t, created, 2)
		assert.Equal(t, "one", created[0].Slug)
		assert.Equal(t, "three", created[1].Slug)

		failed := result.Failed()
		require.Len(t, failed, 1)
		assert.Equal(t, 1, failed[0].Index)
		assert.Equal(t, sitecontent.CategoryValidation, sitecontent.Category(failed[0].Err))

		assert.Equal(t, 1, logs.FilterMessage("bulk create item failed").Len())

		all, err := svc.ListItems(ctx, sitecontent.ListItemsRequest{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		svc := newTestService(t)
		result, err := svc.BulkCreateItems(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, result.Created())
		assert.Empty(t, result.Outcomes)
	})

	t.Run("cancelled context records every remaining item", func(t *testing.T) {
		svc := newTestService(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		result, err := svc.BulkCreateItems(cctx, []sitecontent.CreateItemRequest{
			createReq(sitecontent.ContentTypePage, "a"),
			createReq(sitecontent.ContentTypePage, "b"),
		})
		assert.ErrorIs(t, err, context.Canceled)
		require.Len(t, result.Failed(), 2)
		assert.ErrorIs(t, result.Failed()[1].Err, context.Canceled)
	})
}

type recordingSink struct {
	sitecontent.NoopEventSink
	events []string
}

func (r *recordingSink) ItemCreated(_ context.Context, item *sitecontent.Item) error {
	r.events = append(r.events, "created:"+item.Slug)
	return nil
}

func (r *recordingSink) ItemDeleted(_ context.Context, item *sitecontent.Item) error {
	r.events = append(r.events, "deleted:"+item.Slug)
	return errors.New("sink down")
}

func TestEventsAndHooks(t *testing.T) {
	ctx := context.Background()

	t.Run("events fire and sink errors do not fail the operation", func(t *testing.T) {
		sink := &recordingSink{}
		svc := newTestService(t, sitecontent.WithEventSink(sink))

		item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "ev"))
		require.NoError(t, err)
		deleted, _, err := svc.DeleteItem(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		assert.Equal(t, []string{"created:ev", "deleted:ev"}, sink.events)
	})

	t.Run("before-create hook can rewrite or abort", func(t *testing.T) {
		blocked := errors.New("slug reserved")
		var afterCalls int
		var errorOps []string
		hooks := &sitecontent.Hooks{
			BeforeCreate: []sitecontent.BeforeCreateHook{
				func(hctx *sitecontent.HookContext, req *sitecontent.CreateItemRequest) error {
					req.Slug = strings.ToLower(req.Slug)
					return nil
				},
				func(hctx *sitecontent.HookContext, req *sitecontent.CreateItemRequest) error {
					if req.Slug == "admin" {
						return blocked
					}
					return nil
				},
			},
			AfterCreate: []sitecontent.AfterCreateHook{
				func(hctx *sitecontent.HookContext, item *sitecontent.Item) error {
					afterCalls++
					return nil
				},
			},
			OnError: []sitecontent.ErrorHook{
				func(hctx *sitecontent.HookContext, operation string, err error) {
					errorOps = append(errorOps, operation)
				},
			},
		}
		svc := newTestService(t, sitecontent.WithHooks(hooks))

		item, err := svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "Contact"))
		require.NoError(t, err)
		assert.Equal(t, "contact", item.Slug)

		_, err = svc.CreateItem(ctx, createReq(sitecontent.ContentTypePage, "ADMIN"))
		assert.ErrorIs(t, err, blocked)

		assert.Equal(t, 1, afterCalls)
		assert.Equal(t, []string{"create"}, errorOps)
	})
}
