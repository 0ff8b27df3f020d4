package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/ui/patientdetail"
)

type stubService struct{}

func (stubService) GetPatient(_ context.Context, id string) (*patient.Patient, error) {
	return &patient.Patient{ID: id}, nil
}

func (stubService) AddEntry(context.Context, string, entry.FormValues) (entry.Entry, error) {
	return entry.HealthCheckEntry{}, nil
}

func newTestStore(ttl time.Duration) *Store {
	return NewStore(ttl, func(topicID string) *patientdetail.Controller {
		return patientdetail.New(stubService{}, nil, nil, topicID, zerolog.Nop(), patientdetail.Config{})
	}, zerolog.Nop())
}

func TestStore_Acquire(t *testing.T) {
	st := newTestStore(time.Minute)

	s1, created := st.Acquire("")
	require.True(t, created)

	s2, created := st.Acquire(s1.ID)
	assert.False(t, created)
	assert.Same(t, s1, s2)

	_, created = st.Acquire("not-a-uuid")
	assert.True(t, created)
	assert.Equal(t, 2, st.Len())
}

func TestSession_DetailLifecycle(t *testing.T) {
	st := newTestStore(time.Minute)
	sess, _ := st.Acquire("")

	d := sess.Detail()
	assert.Same(t, d, sess.Detail())
	require.NoError(t, d.Mount(context.Background(), "p1"))

	sess.LeaveDetail()
	assert.ErrorIs(t, d.Mount(context.Background(), "p2"), patientdetail.ErrUnmounted)
	assert.NotSame(t, d, sess.Detail())
}

func TestStore_CleanupEvictsIdle(t *testing.T) {
	st := newTestStore(10 * time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	idle, _ := st.Acquire("")
	d := idle.Detail()
	require.NoError(t, d.Mount(context.Background(), "p1"))

	now = now.Add(8 * time.Minute)
	active, _ := st.Acquire("")

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, st.cleanup())
	assert.Equal(t, 1, st.Len())

	_, created := st.Acquire(active.ID)
	assert.False(t, created)
	assert.ErrorIs(t, d.OpenForm(), patientdetail.ErrUnmounted)
}

func TestStore_Close(t *testing.T) {
	st := newTestStore(time.Minute)
	sess, _ := st.Acquire("")
	d := sess.Detail()

	st.Close()
	assert.Equal(t, 0, st.Len())
	assert.ErrorIs(t, d.Mount(context.Background(), "p1"), patientdetail.ErrUnmounted)
}

func TestStore_Middleware(t *testing.T) {
	st := newTestStore(time.Minute)
	e := echo.New()
	var seen *Session
	h := st.Middleware()(func(c echo.Context) error {
		sess, ok := FromContext(c)
		require.True(t, ok)
		seen = sess
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, seen.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// A known cookie reuses the session and sets nothing.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: seen.ID})
	rec = httptest.NewRecorder()
	first := seen
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Same(t, first, seen)
	assert.Empty(t, rec.Result().Cookies())
}

func TestStore_StartCleanupStopsWithContext(t *testing.T) {
	st := newTestStore(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	st.Acquire("")
	st.StartCleanup(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for st.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("idle session was never evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}

func TestSession_TopicIDIsNotTheCookie(t *testing.T) {
	st := newTestStore(time.Minute)
	sess, _ := st.Acquire("")
	assert.NotEmpty(t, sess.TopicID)
	assert.NotEqual(t, sess.ID, sess.TopicID)
}
