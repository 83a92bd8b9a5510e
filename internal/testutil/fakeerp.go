package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Credentials accepted by the fake login endpoint.
const (
	FakeEmail    = "admin@nesa.test"
	FakePassword = "secret"
)

var fakeSigningKey = []byte("nesa-test-signing-key")

// FakeNotification mirrors the server's notification record.
type FakeNotification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// FakeItem is a project or task as the fake serves it.
type FakeItem struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
}

// FakeERP is an in-memory ERP backend: REST endpoints under /api and the
// notification stream under /ws. Tests drive it through the helper methods.
type FakeERP struct {
	Server *httptest.Server
	Token  string

	mu             sync.Mutex
	notifications  []FakeNotification
	preferences    map[string]bool
	subscriptions  map[string]bool
	projects       []FakeItem
	tasks          []FakeItem
	failStatus     int
	requests       map[string]int
	upgrades       int
	rejectUpgrades int
	conns          map[*websocket.Conn]struct{}
	upgrader       websocket.Upgrader
}

// NewFakeERP starts the fake server and registers its shutdown with t.
func NewFakeERP(t *testing.T) *FakeERP {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeERP{
		Token:         MintToken(t, "user-1", time.Hour),
		preferences:   map[string]bool{"email": true, "push": true, "inApp": true},
		subscriptions: make(map[string]bool),
		requests:      make(map[string]int),
		conns:         make(map[*websocket.Conn]struct{}),
	}

	r := gin.New()
	r.Use(f.countRequests)

	api := r.Group("/api")
	api.POST("/auth/login", f.login)

	authed := api.Group("", f.requireAuth)
	{
		authed.GET("/notifications", f.listNotifications)
		authed.PUT("/notifications/read-all", f.markAllRead)
		authed.PUT("/notifications/:id/read", f.markRead)
		authed.DELETE("/notifications/:id", f.deleteNotification)
		authed.GET("/notifications/preferences", f.getPreferences)
		authed.PUT("/notifications/preferences", f.updatePreferences)
		authed.POST("/notifications/projects/:id/subscription", f.subscribe)
		authed.DELETE("/notifications/projects/:id/subscription", f.unsubscribe)

		authed.GET("/projects", f.listItems(&f.projects))
		authed.PATCH("/projects/:id/status", f.updateItemStatus(&f.projects))
		authed.GET("/tasks", f.listItems(&f.tasks))
		authed.PATCH("/tasks/:id/status", f.updateItemStatus(&f.tasks))
	}

	r.GET("/ws/notifications", f.serveStream)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// MintToken signs a short-lived HS256 token for subject.
func MintToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": FakeEmail,
		"name":  "Nesa Admin",
		"role":  "admin",
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fakeSigningKey)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// APIBase is the REST base URL.
func (f *FakeERP) APIBase() string {
	return f.Server.URL + "/api"
}

// WSBase is the WebSocket base URL.
func (f *FakeERP) WSBase() string {
	return "ws" + strings.TrimPrefix(f.Server.URL, "http") + "/ws"
}

// Close drops live sockets and stops the server.
func (f *FakeERP) Close() {
	f.DropConnections()
	f.Server.Close()
}

// AddNotification seeds a notification and returns its ID.
func (f *FakeERP) AddNotification(kind, title, message string, read bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := FakeNotification{
		ID:        uuid.New().String(),
		Type:      kind,
		Title:     title,
		Message:   message,
		Read:      read,
		CreatedAt: time.Now().UTC(),
	}
	f.notifications = append(f.notifications, n)
	return n.ID
}

// Notifications returns a copy of the stored notifications.
func (f *FakeERP) Notifications() []FakeNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeNotification(nil), f.notifications...)
}

// Subscribed reports whether the caller subscribed to projectID.
func (f *FakeERP) Subscribed(projectID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscriptions[projectID]
}

// AddProject seeds a project in server order.
func (f *FakeERP) AddProject(id, name, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, FakeItem{ID: id, Name: name, Status: status})
}

// AddTask seeds a task in server order.
func (f *FakeERP) AddTask(id, title, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, FakeItem{ID: id, Title: title, Status: status})
}

// ProjectStatus returns the server-side status of a project.
func (f *FakeERP) ProjectStatus(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.ID == id {
			return p.Status
		}
	}
	return ""
}

// FailStatusUpdates makes every status PATCH answer with code (0 restores success).
func (f *FakeERP) FailStatusUpdates(code int) {
	f.mu.Lock()
	f.failStatus = code
	f.mu.Unlock()
}

// Requests returns how many requests matched "METHOD /path" (gin route pattern).
func (f *FakeERP) Requests(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[route]
}

// RejectUpgrades refuses the next n stream handshakes with 503; n < 0 refuses all.
func (f *FakeERP) RejectUpgrades(n int) {
	f.mu.Lock()
	f.rejectUpgrades = n
	f.mu.Unlock()
}

// Upgrades returns the number of stream handshakes attempted.
func (f *FakeERP) Upgrades() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upgrades
}

// Connections returns the number of live stream sockets.
func (f *FakeERP) Connections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

// Push sends v as JSON to every live socket.
func (f *FakeERP) Push(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return f.PushRaw(string(data))
}

// PushRaw sends an arbitrary text frame to every live socket.
func (f *FakeERP) PushRaw(frame string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return err
		}
	}
	return nil
}

// DropConnections closes every live socket without a close handshake.
func (f *FakeERP) DropConnections() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		_ = conn.Close()
		delete(f.conns, conn)
	}
}

func (f *FakeERP) countRequests(c *gin.Context) {
	c.Next()
	f.mu.Lock()
	f.requests[c.Request.Method+" "+c.FullPath()]++
	f.mu.Unlock()
}

func (f *FakeERP) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header != "Bearer "+f.Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.Next()
}

func (f *FakeERP) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Email != FakeEmail || req.Password != FakePassword {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": f.Token,
		"user":  gin.H{"id": "user-1", "name": "Nesa Admin", "email": FakeEmail, "role": "admin"},
	})
}

func (f *FakeERP) listNotifications(c *gin.Context) {
	f.mu.Lock()
	out := append([]FakeNotification{}, f.notifications...)
	f.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (f *FakeERP) markRead(c *gin.Context) {
	id := c.Param("id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].Read = true
			c.JSON(http.StatusOK, f.notifications[i])
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Notification not found"})
}

func (f *FakeERP) markAllRead(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	modified := 0
	for i := range f.notifications {
		if !f.notifications[i].Read {
			f.notifications[i].Read = true
			modified++
		}
	}
	c.JSON(http.StatusOK, gin.H{"modified": modified})
}

func (f *FakeERP) deleteNotification(c *gin.Context) {
	id := c.Param("id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications = append(f.notifications[:i], f.notifications[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Notification not found"})
}

func (f *FakeERP) getPreferences(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, f.preferences)
}

func (f *FakeERP) updatePreferences(c *gin.Context) {
	var prefs map[string]bool
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range prefs {
		f.preferences[k] = v
	}
	c.JSON(http.StatusOK, f.preferences)
}

func (f *FakeERP) subscribe(c *gin.Context) {
	f.mu.Lock()
	f.subscriptions[c.Param("id")] = true
	f.mu.Unlock()
	c.JSON(http.StatusCreated, gin.H{"projectId": c.Param("id"), "subscribed": true})
}

func (f *FakeERP) unsubscribe(c *gin.Context) {
	f.mu.Lock()
	delete(f.subscriptions, c.Param("id"))
	f.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (f *FakeERP) listItems(items *[]FakeItem) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.Query("status")
		f.mu.Lock()
		out := []FakeItem{}
		for _, it := range *items {
			if status == "" || it.Status == status {
				out = append(out, it)
			}
		}
		f.mu.Unlock()
		c.JSON(http.StatusOK, out)
	}
}

func (f *FakeERP) updateItemStatus(items *[]FakeItem) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failStatus != 0 {
			c.JSON(f.failStatus, gin.H{"message": "Invalid status transition"})
			return
		}
		for i := range *items {
			if (*items)[i].ID == c.Param("id") {
				(*items)[i].Status = req.Status
				c.JSON(http.StatusOK, (*items)[i])
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	}
}

func (f *FakeERP) serveStream(c *gin.Context) {
	f.mu.Lock()
	f.upgrades++
	reject := f.rejectUpgrades != 0
	if f.rejectUpgrades > 0 {
		f.rejectUpgrades--
	}
	f.mu.Unlock()

	if reject {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	if c.Query("token") != f.Token {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.conns[conn] = struct{}{}
	f.mu.Unlock()

	// Drain until the client goes away so closed sockets are forgotten.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.mu.Lock()
				delete(f.conns, conn)
				f.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}
