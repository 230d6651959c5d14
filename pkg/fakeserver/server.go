// Package fakeserver is an in-memory stand-in for the submission server:
// the long-poll notifier, the two history fragments, the submit endpoint
// and the supervisor actions. Tests and local demos run the client against
// it.
package fakeserver

import (
	"context"
	"html/template"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	StatusNew       = "new"
	StatusPrinting  = "printing"
	StatusDelivered = "delivered"
	actionDelete    = "delete"
)

type Submission struct {
	ID     int
	Team   string
	Code   string
	Status string
	At     time.Time
}

func (s Submission) Lines() int {
	return strings.Count(s.Code, "\n") + 1
}

// Request is one entry of the request log.
type Request struct {
	Method string
	Path   string
	Query  string
	At     time.Time
}

type Server struct {
	notifier *Notifier
	engine   *gin.Engine
	srv      *http.Server

	mu       sync.Mutex
	subs     []Submission
	nextID   int
	requests []Request
	failures map[string]int
	garbled  int
}

func New() *Server {
	s := &Server{
		notifier: NewNotifier(StartCursor),
		nextID:   1,
		failures: map[string]int{},
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.record)
	r.SetHTMLTemplate(fragments)

	r.GET("/update", s.handleUpdate)
	r.GET("/submissions", s.handleSubmissions)
	r.GET("/see/:id", s.handleSee)
	r.POST("/submit", s.handleSubmit)
	r.GET("/super/submissions", s.handleSuperSubmissions)
	r.GET("/super/see/:id", s.handleSee)
	r.GET("/super/set/:id/:action", s.handleSuperSet)
	r.GET("/super/notify", s.handleSuperNotify)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// Start serves on addr in the background and returns the bound address.
func (s *Server) Start(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	// No write timeout: /update holds the response open.
	s.srv = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = s.srv.Serve(ln) }()
	return ln.Addr(), nil
}

// Close releases parked long-polls so the listener can drain.
func (s *Server) Close() {
	s.notifier.Close()
}

func (s *Server) Stop(ctx context.Context) error {
	s.Close()
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Add stores a new submission without notifying.
func (s *Server) Add(team, code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, Submission{ID: id, Team: team, Code: code, Status: StatusNew, At: time.Now()})
	return id
}

// SetStatus changes a submission's status without notifying.
func (s *Server) SetStatus(id int, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subs {
		if s.subs[i].ID == id {
			s.subs[i].Status = status
			return true
		}
	}
	return false
}

func (s *Server) remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subs {
		if s.subs[i].ID == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Submissions returns a copy, newest first.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	out := append([]Submission(nil), s.subs...)
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) find(id int) (Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.ID == id {
			return sub, true
		}
	}
	return Submission{}, false
}

// FailNext makes the next n requests to path answer 500.
func (s *Server) FailNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] += n
}

// GarbleNext makes the next n /update answers omit the cursor field.
func (s *Server) GarbleNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.garbled += n
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo filters the request log by path.
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(c *gin.Context) {
	path := c.Request.URL.Path

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Request.Method,
		Path:   path,
		Query:  c.Request.URL.RawQuery,
		At:     time.Now(),
	})
	fail := s.failures[path] > 0
	if fail {
		s.failures[path]--
	}
	s.mu.Unlock()

	if fail {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "injected failure"})
		return
	}
	c.Next()
}

func (s *Server) takeGarbled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.garbled == 0 {
		return false
	}
	s.garbled--
	return true
}

func (s *Server) handleUpdate(c *gin.Context) {
	cursor, err := strconv.ParseInt(c.DefaultQuery("cursor", "-1"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cursor must be an integer"})
		return
	}
	if s.takeGarbled() {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	cur, ok := s.notifier.Wait(c.Request.Context(), cursor)
	if !ok {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cursor": cur})
}

func (s *Server) handleSubmissions(c *gin.Context) {
	c.HTML(http.StatusOK, "submissions", s.Submissions())
}

func (s *Server) handleSuperSubmissions(c *gin.Context) {
	subs := s.Submissions()
	rows := make([]superRow, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, superRow{Submission: sub, Actions: actionsFor(sub)})
	}
	c.HTML(http.StatusOK, "super_submissions", rows)
}

func (s *Server) handleSee(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	sub, ok := s.find(id)
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.String(http.StatusOK, sub.Code)
}

func (s *Server) handleSubmit(c *gin.Context) {
	team := strings.TrimSpace(c.PostForm("teamname"))
	code := c.PostForm("codefile")
	if team == "" || strings.TrimSpace(code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "teamname and codefile are required"})
		return
	}
	id := s.Add(team, code)
	s.notifier.Notify()
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *Server) handleSuperSet(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	var found bool
	switch action := c.Param("action"); action {
	case actionDelete:
		found = s.remove(id)
	case StatusNew, StatusPrinting, StatusDelivered:
		found = s.SetStatus(id, action)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	if !found {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	s.notifier.Notify()
	c.Status(http.StatusOK)
}

func (s *Server) handleSuperNotify(c *gin.Context) {
	s.notifier.Notify()
	c.Status(http.StatusOK)
}

type actionLink struct {
	Href  string
	Label string
}

type superRow struct {
	Submission
	Actions []actionLink
}

func actionsFor(sub Submission) []actionLink {
	base := "/super/set/" + strconv.Itoa(sub.ID) + "/"
	var out []actionLink
	switch sub.Status {
	case StatusNew:
		out = append(out, actionLink{Href: base + StatusPrinting, Label: "print"})
	case StatusPrinting:
		out = append(out, actionLink{Href: base + StatusDelivered, Label: "deliver"})
	}
	return append(out, actionLink{Href: base + actionDelete, Label: "delete"})
}

var fragments = template.Must(template.New("fragments").Parse(`
{{define "submissions"}}<table>
<tr><th>#</th><th>Time</th><th>Lines</th><th>Status</th><th></th></tr>
{{range .}}<tr><td>{{.ID}}</td><td>{{.At.Format "2006-01-02 15:04:05"}}</td><td>{{.Lines}}</td><td>{{.Status}}</td><td><a href="/see/{{.ID}}">see</a></td></tr>
{{end}}</table>{{end}}
{{define "super_submissions"}}<table>
<tr><th>#</th><th>Team</th><th>Time</th><th>Lines</th><th>Status</th><th></th></tr>
{{range .}}<tr><td>{{.ID}}</td><td>{{.Team}}</td><td>{{.At.Format "2006-01-02 15:04:05"}}</td><td>{{.Lines}}</td><td>{{.Status}}</td><td><a href="/super/see/{{.ID}}">see</a>{{range .Actions}} <a class="ajax" href="{{.Href}}">{{.Label}}</a>{{end}}</td></tr>
{{end}}</table>{{end}}
`))
