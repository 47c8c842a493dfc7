package form

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/validation"
)

type MockMutator struct {
	MockCreate  func(ctx context.Context, data domain.CreatePostRequest) (domain.Post, error)
	MockUpdate  func(ctx context.Context, id domain.PostID, data domain.UpdatePostRequest) (domain.Post, error)
	createCalls atomic.Int32
	updateCalls atomic.Int32
}

func (m *MockMutator) CreatePost(ctx context.Context, data domain.CreatePostRequest) (domain.Post, error) {
	m.createCalls.Add(1)
	if m.MockCreate != nil {
		return m.MockCreate(ctx, data)
	}
	return domain.Post{ID: "1", Title: data.Title, Content: data.Content, Author: data.Author}, nil
}

func (m *MockMutator) UpdatePost(ctx context.Context, id domain.PostID, data domain.UpdatePostRequest) (domain.Post, error) {
	m.updateCalls.Add(1)
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, id, data)
	}
	return domain.Post{ID: id}, nil
}

// events records notifications and completions in the order they happen.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	e.log = append(e.log, s)
	e.mu.Unlock()
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

func (e *events) Notify(title, description string) domain.Notification {
	e.add("notify:" + title)
	return domain.Notification{Title: title, Description: description}
}

func (e *events) NotifyError(title, description string) domain.Notification {
	e.add("error:" + title)
	return domain.Notification{Title: title, Description: description, Variant: domain.NotificationDestructive}
}

var validFields = validation.PostFields{Title: "Hello", Content: "World", Author: "Ann"}

func newDeps(m *MockMutator, ev *events) Deps {
	return Deps{Mutator: m, Notifier: ev, Schema: validation.New()}
}

func TestCreateSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("valid fields issue exactly one create and close", func(t *testing.T) {
		m := &MockMutator{}
		ev := &events{}
		e := NewCreate("f1", newDeps(m, ev), func(_ context.Context, p domain.Post) { ev.add("complete:" + p.Title) })

		require.NoError(t, e.Set(validFields))
		assert.True(t, e.CanSubmit(), "create mode has no dirty requirement")

		post, err := e.Submit(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Hello", post.Title)
		assert.Equal(t, StateClosed, e.State())
		assert.Equal(t, int32(1), m.createCalls.Load())
		assert.Equal(t, []string{"complete:Hello", "notify:Post created"}, ev.all(), "completion happens before the notification")
	})

	t.Run("invalid fields issue no call", func(t *testing.T) {
		m := &MockMutator{}
		ev := &events{}
		e := NewCreate("f1", newDeps(m, ev), nil)

		require.NoError(t, e.Set(validation.PostFields{Title: "only title"}))
		assert.False(t, e.CanSubmit())
		assert.Len(t, e.Errors(), 2)

		_, err := e.Submit(ctx)
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Equal(t, StateEditing, e.State())
		assert.Zero(t, m.createCalls.Load())
		assert.Empty(t, ev.all())
	})

	t.Run("failure keeps values and returns to editing", func(t *testing.T) {
		remoteErr := errors.New("502")
		m := &MockMutator{MockCreate: func(context.Context, domain.CreatePostRequest) (domain.Post, error) {
			return domain.Post{}, remoteErr
		}}
		ev := &events{}
		completed := false
		e := NewCreate("f1", newDeps(m, ev), func(context.Context, domain.Post) { completed = true })

		_, err := e.SubmitFields(ctx, validFields)
		assert.ErrorIs(t, err, remoteErr)
		assert.Equal(t, StateEditing, e.State())
		assert.Equal(t, validFields, e.Values())
		assert.ErrorIs(t, e.LastError(), remoteErr)
		assert.False(t, completed)
		assert.Equal(t, []string{"error:Error"}, ev.all())
		assert.True(t, e.CanSubmit(), "user can retry manually")
	})

	t.Run("closed form rejects further submits", func(t *testing.T) {
		m := &MockMutator{}
		e := NewCreate("f1", newDeps(m, &events{}), nil)
		_, err := e.SubmitFields(ctx, validFields)
		require.NoError(t, err)

		_, err = e.SubmitFields(ctx, validFields)
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, e.Set(validFields), ErrClosed)
		assert.Equal(t, int32(1), m.createCalls.Load())
	})
}

func TestSubmitWhileInFlight(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	entered := make(chan struct{})
	m := &MockMutator{MockCreate: func(_ context.Context, data domain.CreatePostRequest) (domain.Post, error) {
		close(entered)
		<-release
		return domain.Post{ID: "1", Title: data.Title}, nil
	}}
	ev := &events{}
	e := NewCreate("f1", newDeps(m, ev), nil)

	done := make(chan error)
	go func() {
		_, err := e.SubmitFields(ctx, validFields)
		done <- err
	}()
	<-entered

	assert.Equal(t, StateSubmitting, e.State())
	assert.False(t, e.CanSubmit(), "affordance disabled while submitting")
	assert.Equal(t, "Creating...", e.SubmitLabel())

	_, err := e.SubmitFields(ctx, validFields)
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.False(t, e.Cancel(), "cannot cancel an issued mutation")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), m.createCalls.Load())
	assert.Equal(t, []string{"notify:Post created"}, ev.all())
}

func TestConcurrentSubmitsIssueOneCall(t *testing.T) {
	m := &MockMutator{MockCreate: func(_ context.Context, data domain.CreatePostRequest) (domain.Post, error) {
		time.Sleep(20 * time.Millisecond)
		return domain.Post{ID: "1"}, nil
	}}
	e := NewCreate("f1", newDeps(m, &events{}), nil)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.SubmitFields(context.Background(), validFields); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), m.createCalls.Load())
	assert.Equal(t, int32(1), ok.Load())
}

func TestEditSubmit(t *testing.T) {
	ctx := context.Background()
	post := domain.Post{ID: "7", Title: "Hello", Content: "World", Author: "Ann"}

	t.Run("submit disabled until a field differs", func(t *testing.T) {
		m := &MockMutator{}
		e := NewEdit("f2", post, newDeps(m, &events{}), nil)

		assert.Equal(t, validFields, e.Values(), "pre-filled")
		assert.False(t, e.Dirty())
		assert.False(t, e.CanSubmit())

		_, err := e.Submit(ctx)
		assert.ErrorIs(t, err, ErrNotDirty)
		assert.Zero(t, m.updateCalls.Load())

		changed := validFields
		changed.Author = "Bob"
		require.NoError(t, e.Set(changed))
		assert.True(t, e.Dirty())
		assert.True(t, e.CanSubmit())

		require.NoError(t, e.Set(validFields))
		assert.False(t, e.CanSubmit(), "reverting disables again")
	})

	t.Run("dirty but invalid stays disabled", func(t *testing.T) {
		e := NewEdit("f2", post, newDeps(&MockMutator{}, &events{}), nil)
		require.NoError(t, e.Set(validation.PostFields{Title: "", Content: "World", Author: "Ann"}))
		assert.True(t, e.Dirty())
		assert.False(t, e.CanSubmit())
	})

	t.Run("sends only changed fields", func(t *testing.T) {
		var got domain.UpdatePostRequest
		var gotID domain.PostID
		m := &MockMutator{MockUpdate: func(_ context.Context, id domain.PostID, data domain.UpdatePostRequest) (domain.Post, error) {
			gotID, got = id, data
			return domain.Post{ID: id}, nil
		}}
		ev := &events{}
		var completedWith domain.PostID
		e := NewEdit("f2", post, newDeps(m, ev), func(_ context.Context, p domain.Post) {
			completedWith = p.ID
			ev.add("complete")
		})

		changed := validFields
		changed.Content = "Everyone"
		_, err := e.SubmitFields(ctx, changed)
		require.NoError(t, err)

		assert.Equal(t, domain.PostID("7"), gotID)
		assert.Nil(t, got.Title)
		assert.Nil(t, got.Author)
		require.NotNil(t, got.Content)
		assert.Equal(t, "Everyone", *got.Content)
		assert.Equal(t, domain.PostID("7"), completedWith)
		assert.Equal(t, []string{"complete", "notify:Post updated"}, ev.all())
		assert.Equal(t, StateClosed, e.State())
	})
}

func TestCancel(t *testing.T) {
	m := &MockMutator{}
	ev := &events{}
	e := NewCreate("f1", newDeps(m, ev), func(context.Context, domain.Post) { ev.add("complete") })

	require.NoError(t, e.Set(validFields))
	assert.True(t, e.Cancel())
	assert.Equal(t, StateClosed, e.State())

	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, m.createCalls.Load())
	assert.Empty(t, ev.all())
}

func TestLabels(t *testing.T) {
	create := NewCreate("a", newDeps(&MockMutator{}, &events{}), nil)
	edit := NewEdit("b", domain.Post{ID: "1"}, newDeps(&MockMutator{}, &events{}), nil)

	assert.Equal(t, "Create Post", create.SubmitLabel())
	assert.Equal(t, "Create Post", create.Title())
	assert.Equal(t, "Update Post", edit.SubmitLabel())
	assert.Equal(t, "Edit Post", edit.Title())
	assert.Equal(t, "edit", edit.Mode().String())
}
