package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"timeline/internal/timeline/domain/model"
	"timeline/internal/timeline/usecase"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get("/timeline/stream", "")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, `"success":false`)
}

func TestStream_RequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("Alice", "alice@example.com")
	sid, _ := env.login("alice@example.com")

	resp, _ := env.get("/timeline/stream", sid)

	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

// dialStream serves env.app on a real listener and opens the stream with sid.
func dialStream(t *testing.T, env *testEnv, sid string) *websocket.Conn {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(listener) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	endpoint := fmt.Sprintf("ws://%s/timeline/stream", listener.Addr().String())
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	header := http.Header{"Cookie": {cookieName + "=" + sid}}

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		c, _, err := dialer.Dial(endpoint, header)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 3*time.Second, 50*time.Millisecond)
	t.Cleanup(func() { _ = conn.Close() })

	stream := env.module.GetStream()
	require.Eventually(t, func() bool { return stream.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestStream_PushesNewPosts(t *testing.T) {
	env := newTestEnv(t)
	userID := env.seedUser("Alice", "alice@example.com")
	sid, _ := env.login("alice@example.com")

	conn := dialStream(t, env, sid)

	_, err := env.module.GetUsecase().CreatePost(context.Background(), usecase.CreatePostRequest{
		Author: model.Author{ID: userID, Name: "Alice"},
		Body:   "live <update>",
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg struct {
		Type string            `json:"type"`
		Data usecase.EntryView `json:"data"`
	}
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &msg))

	assert.Equal(t, "post.created", msg.Type)
	assert.Equal(t, userID, msg.Data.UserID)
	assert.Equal(t, "live &lt;update&gt;", msg.Data.Body)

	env.module.Stop()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "stopping the module closes the stream")
}

func TestStream_LogoutClosesStream(t *testing.T) {
	env := newTestEnv(t)
	userID := env.seedUser("Alice", "alice@example.com")
	sid, token := env.login("alice@example.com")

	conn := dialStream(t, env, sid)

	resp, _ := env.post("/logout", sid, url.Values{"csrf_token": {token}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	stream := env.module.GetStream()
	require.Eventually(t, func() bool { return stream.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	_, err := env.module.GetUsecase().CreatePost(context.Background(), usecase.CreatePostRequest{
		Author: model.Author{ID: userID, Name: "Alice"},
		Body:   "after logout",
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	assert.Error(t, err, "a logged out stream receives no more entries, got %s", raw)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected read error: %v", err)
}

func TestStream_DeletedUserIsDisconnected(t *testing.T) {
	env := newTestEnv(t)
	userID := env.seedUser("Alice", "alice@example.com")
	sid, _ := env.login("alice@example.com")

	conn := dialStream(t, env, sid)

	env.users.Delete(userID)
	resp, _ := env.get("/timeline", sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	stream := env.module.GetStream()
	require.Eventually(t, func() bool { return stream.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
