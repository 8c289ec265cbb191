package status

import (
	"strings"
	"testing"

	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/session"
)

func TestConnectionLabel(t *testing.T) {
	tests := []struct {
		sess session.Session
		want string
	}{
		{session.Session{Status: session.StatusIdle}, "Offline"},
		{session.Session{Status: session.StatusQueuing, Connecting: true}, "Connecting"},
		{session.Session{Status: session.StatusQueuing}, "Connected"},
		{session.Session{Status: session.StatusPlaying}, "Connected"},
	}
	for _, tt := range tests {
		m := New()
		m.SetSession(tt.sess)
		if v := m.View(); !strings.Contains(v, tt.want) {
			t.Errorf("%+v: view missing %q", tt.sess.Status, tt.want)
		}
	}
}

func TestToastLifecycle(t *testing.T) {
	m := New()
	m.Width = 100
	m.User = client.User{Username: "ana"}

	seq := m.SetToast(session.Notice{Level: session.LevelSuccess, Text: "Match found!"})
	if !strings.Contains(m.View(), "Match found!") {
		t.Fatal("toast not rendered")
	}

	m.ClearToast(seq - 1)
	if _, ok := m.Toast(); !ok {
		t.Error("clearing a stale sequence hid the toast")
	}
	m.ClearToast(seq)
	if _, ok := m.Toast(); ok {
		t.Error("toast should be cleared")
	}
}
