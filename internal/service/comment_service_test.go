package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agora/internal/models"
	"agora/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commentListenerStub is a stub for CommentListener.
type commentListenerStub struct {
	onCommentCreatedFn func(context.Context, uint, *models.Comment) error
	calls              int
}

func (s *commentListenerStub) OnCommentCreated(ctx context.Context, threadID uint, comment *models.Comment) error {
	s.calls++
	return s.onCommentCreatedFn(ctx, threadID, comment)
}

func TestCommentService_CreateComment(t *testing.T) {
	f := newCoordinatorFixture(t, 0)
	ctx := context.Background()

	thread, err := f.coord.CreateThread(ctx, CreateThreadInput{Actor: Actor{UserID: f.alice.ID}, Title: "Talk"})
	require.NoError(t, err)

	svc := NewCommentService(f.store, security.NewContentSanitizer(nil), f.coord)
	comment, err := svc.CreateComment(ctx, CreateCommentInput{
		UserID:   f.bob.ID,
		ThreadID: thread.ID,
		Content:  `<p>nice</p><img src=x onerror="alert(1)">`,
	})
	require.NoError(t, err)
	assert.NotContains(t, comment.Content, "onerror")
	require.NotNil(t, comment.User)
	assert.Equal(t, "bob", comment.User.Username)

	subscribed, err := f.store.Engagement().IsSubscribed(ctx, f.bob.ID, thread.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)

	comments, err := svc.ListComments(ctx, thread.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestCommentService_CreateComment_Rejections(t *testing.T) {
	f := newCoordinatorFixture(t, 0)
	ctx := context.Background()

	open, err := f.coord.CreateThread(ctx, CreateThreadInput{Actor: Actor{UserID: f.alice.ID}, Title: "Open"})
	require.NoError(t, err)
	frozen, err := f.coord.CreateThread(ctx, CreateThreadInput{
		Actor: Actor{UserID: f.admin.ID},
		Title: "Closed",
		Flags: map[string]bool{models.FieldFrozenAt: true},
	})
	require.NoError(t, err)

	listener := &commentListenerStub{
		onCommentCreatedFn: func(_ context.Context, _ uint, _ *models.Comment) error { return nil },
	}
	svc := NewCommentService(f.store, security.NewContentSanitizer(nil), listener)

	tests := []struct {
		name string
		in   CreateCommentInput
		code string
	}{
		{"anonymous", CreateCommentInput{ThreadID: open.ID, Content: "x"}, models.CodeUnauthorized},
		{"missing thread", CreateCommentInput{UserID: f.bob.ID, ThreadID: 9999, Content: "x"}, models.CodeNotFound},
		{"frozen thread", CreateCommentInput{UserID: f.bob.ID, ThreadID: frozen.ID, Content: "x"}, models.CodeForbidden},
		{"empty", CreateCommentInput{UserID: f.bob.ID, ThreadID: open.ID, Content: "  "}, models.CodeValidation},
		{"too long", CreateCommentInput{UserID: f.bob.ID, ThreadID: open.ID, Content: strings.Repeat("a", maxCommentLen+1)}, models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateComment(ctx, tt.in)
			assertAppErrorCode(t, err, tt.code)
		})
	}
	assert.Zero(t, listener.calls)
}

func TestCommentService_ListenerFailureKeepsComment(t *testing.T) {
	f := newCoordinatorFixture(t, 0)
	ctx := context.Background()

	thread, err := f.coord.CreateThread(ctx, CreateThreadInput{Actor: Actor{UserID: f.alice.ID}, Title: "Talk"})
	require.NoError(t, err)

	listener := &commentListenerStub{
		onCommentCreatedFn: func(_ context.Context, _ uint, _ *models.Comment) error {
			return errors.New("refresh failed")
		},
	}
	svc := NewCommentService(f.store, security.NewContentSanitizer(nil), listener)

	comment, err := svc.CreateComment(ctx, CreateCommentInput{UserID: f.bob.ID, ThreadID: thread.ID, Content: "hello"})
	require.NoError(t, err)
	assert.NotZero(t, comment.ID)
	assert.Equal(t, 1, listener.calls)
}
