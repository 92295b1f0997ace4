package log

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/eventlink/internal/event"
)

func TestLog_FormatsLine(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)

	Info(CatFSM, "switched", "from", "red", "to", "green")

	line := buf.String()
	require.Contains(t, line, "[INFO] [fsm] switched from=red to=green")
	require.True(t, line[len(line)-1] == '\n')
}

func TestLog_MinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelWarn)

	Debug(CatEvent, "hidden")
	Info(CatEvent, "hidden too")
	Warn(CatEvent, "shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "[WARN] [event] shown")
}

func TestLog_SetEnabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)

	SetEnabled(false)
	Error(CatCLI, "dropped")
	SetEnabled(true)
	Error(CatCLI, "kept")

	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "kept")
}

func TestLog_OddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)

	Info(CatConfig, "loaded", "path", "/tmp/a.yaml", "orphan")

	require.Contains(t, buf.String(), "path=/tmp/a.yaml orphan=<missing>")
}

func TestLog_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)

	ErrorErr(CatWatcher, "watch failed", errors.New("boom"))
	ErrorErr(CatWatcher, "watch failed", nil)

	require.Contains(t, buf.String(), "error=boom")
	require.Contains(t, buf.String(), "error=<nil>")
}

func TestLog_ListenersReceiveEntries(t *testing.T) {
	InitWriter(nil, LevelInfo)

	var got []Entry
	l := event.NewListener(func(e Entry) { got = append(got, e) })
	Subscribe(l)

	Info(CatValue, "changed", "old", 1, "new", 2)
	Debug(CatValue, "filtered")
	Unsubscribe(l)
	Info(CatValue, "after unsubscribe")

	require.Len(t, got, 1)
	require.Equal(t, LevelInfo, got[0].Level)
	require.Equal(t, CatValue, got[0].Category)
	require.Equal(t, "changed", got[0].Message)
	require.Contains(t, got[0].Line, "old=1 new=2")
}

func TestLog_ListenerMayLog(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)

	var got []string
	l := event.NewListener(func(e Entry) {
		got = append(got, e.Message)
		if e.Message == "outer" {
			Warn(CatValue, "inner")
		}
	})
	Subscribe(l)
	defer Unsubscribe(l)

	done := make(chan struct{})
	go func() {
		defer close(done)
		Info(CatValue, "outer")
		Info(CatValue, "after")
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("logging from a listener blocked")
	}

	require.Equal(t, []string{"outer", "inner", "after"}, got)
	require.Contains(t, buf.String(), "[WARN] [value] inner")
}

func TestLog_ListenerMayCloseItself(t *testing.T) {
	InitWriter(nil, LevelInfo)

	calls := 0
	var l *event.Listener[Entry]
	l = event.NewListener(func(Entry) {
		calls++
		l.Close()
	})
	Subscribe(l)

	Info(CatValue, "first")
	Info(CatValue, "second")

	require.Equal(t, 1, calls)
}

func TestLog_ListenerPanicDoesNotStallDelivery(t *testing.T) {
	InitWriter(nil, LevelInfo)

	var got []string
	panicked := false
	l := event.NewListener(func(e Entry) {
		if !panicked {
			panicked = true
			panic("listener failed")
		}
		got = append(got, e.Message)
	})
	Subscribe(l)
	defer Unsubscribe(l)

	require.Panics(t, func() { Info(CatValue, "boom") })
	Info(CatValue, "recovered")

	require.Equal(t, []string{"recovered"}, got)
}

func TestLog_ConcurrentWritersDeliverEveryEntry(t *testing.T) {
	InitWriter(nil, LevelInfo)

	count := 0
	l := event.NewListener(func(Entry) { count++ })
	Subscribe(l)

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				Info(CatValue, "write", "writer", w, "i", i)
			}
		}()
	}
	wg.Wait()

	Unsubscribe(l)
	require.Equal(t, writers*perWriter, count)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}
