package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bubblecloud/bubblecloud-tray/internal/events"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
)

type sent struct {
	title, message string
}

func newRecordingNotifier() (*Notifier, *[]sent) {
	var got []sent
	n := NewNotifier(logging.Nop())
	n.send = func(title, message string) error {
		got = append(got, sent{title, message})
		return nil
	}
	return n, &got
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a long string", 10, "this is..."},
		{"", 10, ""},
		{"abc", 3, "abc"},
		{"abcd", 3, "..."},
		{"héllo wörld", 8, "héllo..."},
		{"日本語のファイル名.pdf", 6, "日本語..."},
		{"résumé.pdf", 10, "résumé.pdf"},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if !utf8.ValidString(result) {
			t.Errorf("truncate(%q, %d) split a character: %q", tt.input, tt.maxLen, result)
		}
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestShortenPath(t *testing.T) {
	tests := []struct {
		input string
		short bool // expect it to be shortened
	}{
		{"/short/path", false},
		{"/a/very/long/path/that/exceeds/the/maximum/length/for/notification/display/file.txt", true},
		{"C:\\Users\\TestUser\\Downloads\\file.txt", false},
	}

	for _, tt := range tests {
		result := shortenPath(tt.input)
		if tt.short && len(result) >= len(tt.input) {
			t.Errorf("shortenPath(%q) was not shortened: %q", tt.input, result)
		}
		if !tt.short && result != tt.input {
			t.Errorf("shortenPath(%q) = %q, want unchanged", tt.input, result)
		}
	}
}

func TestSetEnabled(t *testing.T) {
	n, got := newRecordingNotifier()

	if !n.IsEnabled() {
		t.Error("Expected initially enabled")
	}

	n.SetEnabled(false)
	n.DownloadComplete("report.pdf", "/tmp/report.pdf")
	n.UploadFailed("boom")
	if len(*got) != 0 {
		t.Errorf("disabled notifier sent %d notifications", len(*got))
	}

	n.SetEnabled(true)
	n.DownloadComplete("report.pdf", "/tmp/report.pdf")
	if len(*got) != 1 {
		t.Errorf("enabled notifier sent %d notifications, want 1", len(*got))
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		event     events.Event
		wantTitle string
		wantText  string
	}{
		{
			name: "upload batch",
			event: &events.TransferEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventTransferCompleted},
				Kind:      events.KindUpload,
				Files:     3,
			},
			wantTitle: "Upload Complete",
			wantText:  "Uploaded 3 files",
		},
		{
			name: "single upload",
			event: &events.TransferEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventTransferCompleted},
				Kind:      events.KindUpload,
				Files:     1,
				Name:      "notes.txt",
			},
			wantTitle: "Upload Complete",
			wantText:  "notes.txt",
		},
		{
			name: "download",
			event: &events.TransferEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventTransferCompleted},
				Kind:      events.KindDownload,
				Name:      "report.pdf",
				Path:      "/home/me/report.pdf",
			},
			wantTitle: "Download Complete",
			wantText:  "/home/me/report.pdf",
		},
		{
			name: "download failure",
			event: &events.TransferEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventTransferFailed},
				Kind:      events.KindDownload,
				Name:      "report.pdf",
				Error:     errors.New("connection reset"),
			},
			wantTitle: "Download Failed",
			wantText:  "connection reset",
		},
		{
			name: "upload failure",
			event: &events.TransferEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventTransferFailed},
				Kind:      events.KindUpload,
			},
			wantTitle: "Upload Failed",
			wantText:  "unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, got := newRecordingNotifier()
			n.Handle(tt.event)
			if len(*got) != 1 {
				t.Fatalf("sent %d notifications, want 1", len(*got))
			}
			s := (*got)[0]
			if !strings.HasSuffix(s.title, tt.wantTitle) {
				t.Errorf("title = %q, want suffix %q", s.title, tt.wantTitle)
			}
			if !strings.Contains(s.message, tt.wantText) {
				t.Errorf("message = %q, want it to contain %q", s.message, tt.wantText)
			}
		})
	}
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	n, got := newRecordingNotifier()
	n.Handle(&events.SessionEvent{BaseEvent: events.BaseEvent{EventType: events.EventSessionChanged}})
	n.Handle(&events.TransferEvent{BaseEvent: events.BaseEvent{EventType: events.EventTransferProgress}})
	if len(*got) != 0 {
		t.Errorf("sent %d notifications for non-terminal events", len(*got))
	}
}

func TestSendFailureIsLogged(t *testing.T) {
	n := NewNotifier(logging.Nop())
	n.send = func(string, string) error { return errors.New("no dbus") }
	// Must not panic or propagate.
	n.UploadComplete(1, "a.txt")
}

func TestWatch(t *testing.T) {
	bus := events.NewEventBus(1)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	titles := make(chan string, 4)
	n := NewNotifier(logging.Nop())
	n.send = func(title, _ string) error {
		titles <- title
		return nil
	}
	n.Watch(ctx, bus)

	// Progress events must not fill the buffer the completions use.
	for i := 0; i < 10; i++ {
		bus.PublishTransfer(events.EventTransferProgress, events.TransferEvent{Kind: events.KindDownload, Progress: 0.1})
	}
	bus.PublishTransfer(events.EventTransferCompleted, events.TransferEvent{Kind: events.KindDownload, Name: "a.pdf", Path: "/tmp/a.pdf"})

	select {
	case title := <-titles:
		if !strings.HasSuffix(title, "Download Complete") {
			t.Errorf("title = %q", title)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification for the completed download")
	}

	bus.PublishTransfer(events.EventTransferFailed, events.TransferEvent{Kind: events.KindUpload, Error: errors.New("boom")})
	select {
	case title := <-titles:
		if !strings.HasSuffix(title, "Upload Failed") {
			t.Errorf("title = %q", title)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification for the failed upload")
	}
}

func TestWatchDisabled(t *testing.T) {
	bus := events.NewEventBus(4)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sent := make(chan struct{}, 1)
	n := NewNotifier(logging.Nop())
	n.send = func(string, string) error {
		sent <- struct{}{}
		return nil
	}
	n.SetEnabled(false)
	n.Watch(ctx, bus)

	bus.PublishTransfer(events.EventTransferCompleted, events.TransferEvent{Kind: events.KindUpload, Files: 2})
	select {
	case <-sent:
		t.Error("disabled notifier sent a notification")
	case <-time.After(100 * time.Millisecond):
	}
}
