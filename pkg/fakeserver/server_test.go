package fakeserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNotifier_StaleCursorAnsweredAtOnce(t *testing.T) {
	n := NewNotifier(StartCursor)

	cur, ok := n.Wait(context.Background(), -1)
	require.True(t, ok)
	require.Equal(t, StartCursor, cur)

	cur, ok = n.Wait(context.Background(), 3)
	require.True(t, ok)
	require.Equal(t, StartCursor, cur)
	require.Zero(t, n.Waiting())
}

func TestNotifier_NotifyReleasesWaiters(t *testing.T) {
	n := NewNotifier(StartCursor)

	got := make(chan int64, 2)
	for i := 0; i < 2; i++ {
		go func() {
			cur, ok := n.Wait(context.Background(), StartCursor)
			if ok {
				got <- cur
			}
		}()
	}
	require.Eventually(t, func() bool { return n.Waiting() == 2 }, time.Second, 5*time.Millisecond)

	require.Equal(t, int64(11), n.Notify())
	require.Equal(t, int64(11), <-got)
	require.Equal(t, int64(11), <-got)
	require.Zero(t, n.Waiting())
}

func TestNotifier_CancelAndClose(t *testing.T) {
	n := NewNotifier(StartCursor)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := n.Wait(ctx, StartCursor)
		done <- ok
	}()
	require.Eventually(t, func() bool { return n.Waiting() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.False(t, <-done)
	require.Zero(t, n.Waiting())

	go func() {
		_, ok := n.Wait(context.Background(), StartCursor)
		done <- ok
	}()
	require.Eventually(t, func() bool { return n.Waiting() == 1 }, time.Second, 5*time.Millisecond)
	n.Close()
	require.False(t, <-done)

	_, ok := n.Wait(context.Background(), StartCursor)
	require.False(t, ok)
}

func serve(s *Server, method, target string, body url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestUpdate_StaleCursor(t *testing.T) {
	s := New()

	w := serve(s, http.MethodGet, "/update?cursor=-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, StartCursor, body["cursor"])
}

func TestUpdate_BadCursor(t *testing.T) {
	s := New()
	w := serve(s, http.MethodGet, "/update?cursor=abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_Garbled(t *testing.T) {
	s := New()
	s.GarbleNext(1)

	w := serve(s, http.MethodGet, "/update?cursor=-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "cursor")

	w = serve(s, http.MethodGet, "/update?cursor=-1", nil)
	require.Contains(t, w.Body.String(), `"cursor":10`)
}

func TestSubmit_StoresAndNotifies(t *testing.T) {
	s := New()

	w := serve(s, http.MethodPost, "/submit", url.Values{"teamname": {"rocket"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, StartCursor, s.Notifier().Cursor())

	w = serve(s, http.MethodPost, "/submit", url.Values{
		"teamname": {"rocket"},
		"codefile": {"int main() {\n}\n"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, StartCursor+1, s.Notifier().Cursor())

	subs := s.Submissions()
	require.Len(t, subs, 1)
	require.Equal(t, "rocket", subs[0].Team)
	require.Equal(t, StatusNew, subs[0].Status)
	require.Equal(t, 3, subs[0].Lines())

	w = serve(s, http.MethodGet, "/submissions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<td>new</td>")
	require.NotContains(t, w.Body.String(), "rocket")
}

func TestSuper_ActionsAdvanceStatus(t *testing.T) {
	s := New()
	id := s.Add("rocket", "x")

	w := serve(s, http.MethodGet, "/super/submissions", nil)
	body := w.Body.String()
	require.Contains(t, body, "<td>rocket</td>")
	require.Contains(t, body, `<a class="ajax" href="/super/set/1/printing">print</a>`)
	require.Contains(t, body, `href="/super/set/1/delete"`)

	w = serve(s, http.MethodGet, "/super/set/1/printing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, StartCursor+1, s.Notifier().Cursor())

	body = serve(s, http.MethodGet, "/super/submissions", nil).Body.String()
	require.NotContains(t, body, "<td>new</td>")
	require.Contains(t, body, `href="/super/set/1/delivered"`)

	require.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/super/set/1/burn", nil).Code)
	require.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/super/set/99/printing", nil).Code)

	require.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/super/set/1/delete", nil).Code)
	require.Empty(t, s.Submissions())
	_, ok := s.find(id)
	require.False(t, ok)
}

func TestSee(t *testing.T) {
	s := New()
	id := s.Add("rocket", "print 1")

	w := serve(s, http.MethodGet, "/see/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "print 1", w.Body.String())
	require.Equal(t, 1, id)

	require.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/super/see/7", nil).Code)
}

func TestFailNextAndRequestLog(t *testing.T) {
	s := New()
	s.FailNext("/super/notify", 1)

	require.Equal(t, http.StatusInternalServerError, serve(s, http.MethodGet, "/super/notify", nil).Code)
	require.Equal(t, StartCursor, s.Notifier().Cursor())
	require.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/super/notify", nil).Code)
	require.Equal(t, StartCursor+1, s.Notifier().Cursor())

	reqs := s.RequestsTo("/super/notify")
	require.Len(t, reqs, 2)
	require.Equal(t, http.MethodGet, reqs[0].Method)
	require.Len(t, s.Requests(), 2)
}

func TestStartStop(t *testing.T) {
	s := New()
	addr, err := s.Start("127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/update?cursor=-1")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
