package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/macrotracker/internal"
)

type seqMsg struct {
	Seq int `json:"seq"`
}

func TestHub_InitialPayloadPrecedesBroadcasts(t *testing.T) {
	hub := NewHub(internal.NewNopLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &wsClient{sessionID: "s1", conn: conn}
		defer hub.unregister(client)

		err = hub.subscribe(client, func() (any, error) {
			// A change lands while the initial summary is being built.
			go hub.Broadcast("s1", seqMsg{Seq: 2})
			time.Sleep(50 * time.Millisecond)
			return seqMsg{Seq: 1}, nil
		})
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first, second seqMsg
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, 1, hub.Clients("s1"))
}
