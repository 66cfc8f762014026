package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/internal/infrastructure/realtime"
)

type wsFrame struct {
	ProjectID string         `json:"projectId"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
}

func dialProject(t *testing.T, gate PromptGate) (*websocket.Conn, *realtime.Hub, *recordingDispatcher) {
	t.Helper()
	store := newMemStore()
	p := entity.NewProject("user-1", "Pilot", "")
	p.ID = "project-1"
	_ = memProjects{store}.Create(context.Background(), p)

	hub := realtime.NewHub(8)
	dispatcher := newRecordingDispatcher()
	h := NewRealtimeHandler(config.RealtimeConfig{PingInterval: time.Minute}, config.CORSConfig{}, memProjects{store}, hub, dispatcher, gate)

	r := gin.New()
	r.GET("/v1/projects/:pid/ws", h.Connect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/projects/project-1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, hub, dispatcher
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f wsFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

func TestRealtimeJoinReceivesProjectEvents(t *testing.T) {
	conn, hub, _ := dialProject(t, nil)

	if err := conn.WriteJSON(map[string]string{"event": "joinProject"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Event != "joined" || f.Data["projectId"] != "project-1" {
		t.Fatalf("join reply = %+v", f)
	}

	sink := realtime.NewSink(hub)
	sink.Emit(context.Background(), "project-2", entity.TextChunk{Content: "other project"})
	sink.Emit(context.Background(), "project-1", entity.TextChunk{Content: "FADE IN"})

	f := readFrame(t, conn)
	if f.Event != string(entity.EventTextChunk) || f.ProjectID != "project-1" || f.Data["content"] != "FADE IN" {
		t.Fatalf("event = %+v", f)
	}
}

func TestRealtimePromptIsDispatched(t *testing.T) {
	conn, _, dispatcher := dialProject(t, nil)

	if err := conn.WriteJSON(map[string]string{"event": "prompt", "projectId": "project-1", "prompt": "Add a twist"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Event != "promptAccepted" {
		t.Fatalf("reply = %+v", f)
	}
	select {
	case got := <-dispatcher.calls:
		if got.projectID != "project-1" || got.prompt != "Add a twist" {
			t.Fatalf("dispatched = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("prompt was not dispatched")
	}
}

func TestRealtimePromptWithoutJoinReceivesCycleEvents(t *testing.T) {
	conn, hub, _ := dialProject(t, nil)

	if err := conn.WriteJSON(map[string]string{"event": "prompt", "prompt": "Open on a rooftop"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Event != "promptAccepted" {
		t.Fatalf("reply = %+v", f)
	}

	realtime.NewSink(hub).Emit(context.Background(), "project-1", entity.TextChunk{Content: "EXT. ROOFTOP - NIGHT"})

	f := readFrame(t, conn)
	if f.Event != string(entity.EventTextChunk) || f.Data["content"] != "EXT. ROOFTOP - NIGHT" {
		t.Fatalf("event = %+v", f)
	}
}

func TestRealtimeRefusals(t *testing.T) {
	conn, _, dispatcher := dialProject(t, func(context.Context, string) bool { return false })

	cases := []struct {
		msg  map[string]string
		want string
	}{
		{map[string]string{"event": "prompt", "projectId": "project-9", "prompt": "x"}, "connection is bound to project project-1"},
		{map[string]string{"event": "prompt", "prompt": "  "}, "prompt must not be empty"},
		{map[string]string{"event": "prompt", "prompt": "x"}, "rate limit exceeded"},
		{map[string]string{"event": "leaveEverything"}, "unknown event: leaveEverything"},
	}
	for _, tc := range cases {
		if err := conn.WriteJSON(tc.msg); err != nil {
			t.Fatal(err)
		}
		f := readFrame(t, conn)
		if f.Event != "error" || f.Data["message"] != tc.want {
			t.Fatalf("reply to %v = %+v", tc.msg, f)
		}
	}
	if len(dispatcher.calls) != 0 {
		t.Fatalf("refused prompts must not be dispatched")
	}
}

func TestRealtimeUnknownProjectIsNotUpgraded(t *testing.T) {
	store := newMemStore()
	h := NewRealtimeHandler(config.RealtimeConfig{}, config.CORSConfig{}, memProjects{store}, realtime.NewHub(1), newRecordingDispatcher(), nil)
	r := gin.New()
	r.GET("/v1/projects/:pid/ws", h.Connect)
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/projects/ghost/ws", nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("response = %v", resp)
	}
}
