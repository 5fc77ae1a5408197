package admin_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/shopmindai/voicematch/internal/admin"
)

func TestServeWSStreamsPublishedEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := admin.NewHub(nil)
	done := make(chan struct{})
	go hub.Run(done)
	defer close(done)

	r := gin.New()
	r.GET("/admin/live", hub.ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// give the server goroutine time to register the client before we
	// publish, since registration happens asynchronously over a channel.
	time.Sleep(50 * time.Millisecond)

	hub.Publish(admin.Event{Kind: "scheduler.dispatch", Detail: "tick"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), "scheduler.dispatch")
}
