package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestVerboseOnlyLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("embedding %d chunks", 3) }, "[DEBUG] embedding 3 chunks\n"},
		{"info", func() { Info("cache hit for %s", "abc") }, "[INFO] cache hit for abc\n"},
		{"section", func() { Section("Query") }, "\n=== Query ===\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer reset()
			var buf bytes.Buffer
			SetOutput(&buf)

			SetVerbose(false)
			tt.log()
			if buf.Len() > 0 {
				t.Errorf("expected no output when not verbose, got %q", buf.String())
			}

			SetVerbose(true)
			tt.log()
			if buf.String() != tt.want {
				t.Errorf("unexpected output: %q", buf.String())
			}
		})
	}
}

func TestWarnAndErrorAlwaysPrint(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("collection %q unavailable, reconnecting", "documents")
	Error("ingest failed: %v", "boom")

	want := "[WARN] collection \"documents\" unavailable, reconnecting\n[ERROR] ingest failed: boom\n"
	if buf.String() != want {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestConcurrentAccess(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Debug("concurrent %d", n)
			Warn("concurrent %d", n)
			IsVerbose()
		}(i)
	}
	wg.Wait()

	if buf.Len() == 0 {
		t.Error("expected output from concurrent writers")
	}
}
