package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nekoallergy22/audio-app-2025/internal/segment"
)

func TestEventsStream(t *testing.T) {
	srv, _ := testServer(testConfig())
	sess := createSession(t, srv, "")
	segs := setText(t, srv, sess.SessionID, "一。")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/sessions/" + sess.SessionID + "/events"
	header := http.Header{"Authorization": {"Bearer test-token"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	w := do(t, srv, "POST", "/v1/sessions/"+sess.SessionID+"/segments/"+segs.Segments[0].ID+"/synthesize", "")
	if w.Code != http.StatusOK {
		t.Fatalf("synthesize: status %d: %s", w.Code, w.Body.String())
	}

	want := []segment.EventKind{segment.EventSegmentStarted, segment.EventSegmentReady}
	for _, kind := range want {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev segment.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read %s: %v", kind, err)
		}
		if ev.Kind != kind {
			t.Errorf("event = %s, want %s", ev.Kind, kind)
		}
		if ev.SegmentID != segs.Segments[0].ID {
			t.Errorf("event segment = %s, want %s", ev.SegmentID, segs.Segments[0].ID)
		}
	}
}

func TestEventsUnknownSession(t *testing.T) {
	srv, _ := testServer(testConfig())

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/sessions/nope/events"
	header := http.Header{"Authorization": {"Bearer test-token"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("expected dial to fail for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status %d response", http.StatusNotFound)
	}
}
