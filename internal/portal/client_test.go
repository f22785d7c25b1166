package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/config"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

const (
	loginPath     = "/jsxsd/xk/LoginToXk"
	timetablePath = "/jsxsd/framework/mainV_index_loadkb.htmlx"
	loginPage     = `<html><form><input name="userAccount"><input name="userPassword"></form></html>`
	timetablePage = `<html><table id="timetable"><tbody></tbody></table></html>`
)

type fakePortal struct {
	account  string
	secret   string
	status   int
	mu       sync.Mutex
	lastDate string
}

func (p *fakePortal) requestedDate() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastDate
}

func (p *fakePortal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseForm()) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		assert.Equal(t, "LoginToXk", r.PostForm.Get("loginMethod"))
		assert.Equal(t, encodeCredentials(r.PostForm.Get("userAccount"), r.PostForm.Get("userPassword")), r.PostForm.Get("encoded"))

		if r.PostForm.Get("userAccount") != p.account || r.PostForm.Get("userPassword") != p.secret {
			_, _ = w.Write([]byte(loginPage))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte("<html>welcome</html>"))
	})
	mux.HandleFunc(timetablePath, func(w http.ResponseWriter, r *http.Request) {
		if p.status != 0 {
			w.WriteHeader(p.status)
			return
		}
		cookie, err := r.Cookie("JSESSIONID")
		if err != nil || cookie.Value != "abc" {
			_, _ = w.Write([]byte(loginPage))
			return
		}

		q := r.URL.Query()
		assert.Equal(t, "MODE", q.Get("sjmsValue"))
		assert.Equal(t, "2024-2025-2", q.Get("xnxqid"))
		assert.Equal(t, "false", q.Get("xswk"))
		p.mu.Lock()
		p.lastDate = q.Get("rq")
		p.mu.Unlock()

		_, _ = w.Write([]byte(timetablePage))
	})
	return mux
}

func newTestClient(t *testing.T, p *fakePortal) *Client {
	t.Helper()

	srv := httptest.NewServer(p.handler(t))
	t.Cleanup(srv.Close)

	c, err := New(config.PortalConfig{
		BaseURL:       srv.URL,
		LoginPath:     loginPath,
		TimetablePath: timetablePath,
		ScheduleMode:  "MODE",
		TermID:        "2024-2025-2",
		Timeout:       5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestEncodeCredentials(t *testing.T) {
	assert.Equal(t, "MjAyMzAwMQ==%%%cHc=", encodeCredentials("2023001", "pw"))
}

func TestClient_FetchTimetable(t *testing.T) {
	p := &fakePortal{account: "2023001", secret: "pw"}
	c := newTestClient(t, p)
	ctx := context.Background()

	sess, err := c.Authenticate(ctx, "2023001", "pw")
	require.NoError(t, err)
	assert.Equal(t, "2023001", sess.Account())

	page, err := c.FetchTimetableHTML(ctx, sess, time.Date(2025, 3, 3, 7, 55, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, timetablePage, page)
	assert.Equal(t, "2025-03-03", p.requestedDate())
}

func TestClient_Authenticate_Rejected(t *testing.T) {
	p := &fakePortal{account: "2023001", secret: "pw"}
	c := newTestClient(t, p)

	_, err := c.Authenticate(context.Background(), "2023001", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrAuth)
}

func TestClient_FetchTimetable_Non200(t *testing.T) {
	p := &fakePortal{account: "2023001", secret: "pw", status: http.StatusBadGateway}
	c := newTestClient(t, p)
	ctx := context.Background()

	sess, err := c.Authenticate(ctx, "2023001", "pw")
	require.NoError(t, err)

	_, err = c.FetchTimetableHTML(ctx, sess, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrFetch)
}

func TestClient_FetchTimetable_ExpiredSession(t *testing.T) {
	p := &fakePortal{account: "2023001", secret: "pw"}
	c := newTestClient(t, p)

	stale := &session{account: "2023001", http: http.DefaultClient}
	_, err := c.FetchTimetableHTML(context.Background(), stale, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrAuth)
}

func TestClient_Unreachable(t *testing.T) {
	c, err := New(config.PortalConfig{BaseURL: "http://127.0.0.1:1", LoginPath: loginPath, Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Authenticate(context.Background(), "a", "b")
	assert.ErrorIs(t, err, apperrors.ErrFetch)
}
