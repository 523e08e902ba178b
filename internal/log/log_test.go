package log

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWrite_DisabledByDefault(t *testing.T) {
	Reset()
	require.NotPanics(t, func() { Debug(CatJQL, "nobody listening") })
	require.Nil(t, Subscribe(context.Background()))
}

func TestInitWriter_FormatsEntry(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Info(CatCache, "cache hit", "query", "open_bugs", "issues", 12)

	out := buf.String()
	require.Contains(t, out, "[INFO] [cache] cache hit query=open_bugs issues=12")
	require.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestFormat_OddFields(t *testing.T) {
	ts := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)
	got := format(ts, LevelWarn, CatJira, "throttled", "retry_after")
	require.Equal(t, "2025-12-06T10:45:00 [WARN] [jira] throttled retry_after=<missing>\n", got)
}

func TestMinLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetMinLevel(LevelWarn)
	Debug(CatPager, "dropped")
	Info(CatPager, "dropped")
	Warn(CatPager, "kept")

	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "kept")
}

func TestSetEnabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetEnabled(false)
	Error(CatDB, "hidden")
	SetEnabled(true)
	Error(CatDB, "visible")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "visible")
}

func TestErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	ErrorErr(CatJira, "search failed", os.ErrDeadlineExceeded, "status", 503)
	ErrorErr(CatJira, "no error", nil)

	require.Contains(t, buf.String(), "search failed status=503 error=i/o timeout")
	require.Contains(t, buf.String(), "no error error=<nil>")
}

func TestSubscribe_ReceivesEntries(t *testing.T) {
	InitWriter(&bytes.Buffer{})
	t.Cleanup(Reset)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := Subscribe(ctx)
	require.NotNil(t, ch)

	Debug(CatWatcher, "config changed")

	select {
	case ev := <-ch:
		require.Contains(t, ev.Payload, "config changed")
	case <-time.After(time.Second):
		t.Fatal("no log event published")
	}
}

func TestInit_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := Init(path)
	require.NoError(t, err)
	t.Cleanup(Reset)

	Info(CatConfig, "first")
	Info(CatConfig, "second")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "first")
	require.Contains(t, string(data), "second")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestInit_BadPath(t *testing.T) {
	_, err := Init(filepath.Join(t.TempDir(), "missing", "debug.log"))
	require.ErrorContains(t, err, "opening log file")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"": LevelDebug, "INFO": LevelInfo, "warning": LevelWarn, " error ": LevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
	require.Equal(t, "UNKNOWN", Level(42).String())
}
