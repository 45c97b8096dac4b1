package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewStore(t *testing.T) {
	t.Run("requires directory", func(t *testing.T) {
		_, err := NewStore("")
		assert.Error(t, err)
	})

	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "transcripts")
		_, err := NewStore(dir)
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})
}

func TestAppendAndLoad(t *testing.T) {
	s := newTestStore(t)

	t.Run("roundtrips turns in order", func(t *testing.T) {
		ts := time.Date(2025, 11, 24, 9, 0, 0, 0, time.UTC)
		require.NoError(t, s.Append("session-1", Turn{Role: "user", Content: "remind me about lunch", Timestamp: ts}))
		require.NoError(t, s.Append("session-1", Turn{Role: "assistant", Content: "Routing to reminder management specialist", RoleName: "orchestrator", Timestamp: ts.Add(time.Second)}))

		turns, err := s.Load("session-1")
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, "user", turns[0].Role)
		assert.Equal(t, "remind me about lunch", turns[0].Content)
		assert.Equal(t, "orchestrator", turns[1].RoleName)
		assert.True(t, turns[1].Timestamp.After(turns[0].Timestamp))
	})

	t.Run("fills zero timestamp", func(t *testing.T) {
		require.NoError(t, s.Append("session-2", Turn{Role: "user", Content: "hello"}))

		turns, err := s.Load("session-2")
		require.NoError(t, err)
		require.Len(t, turns, 1)
		assert.False(t, turns[0].Timestamp.IsZero())
	})

	t.Run("missing transcript is empty", func(t *testing.T) {
		turns, err := s.Load("never-written")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("skips corrupt lines", func(t *testing.T) {
		require.NoError(t, s.Append("session-3", Turn{Role: "user", Content: "first"}))

		path := filepath.Join(filepath.Dir(s.path("session-3")), "session-3.jsonl")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
		require.NoError(t, err)
		_, err = f.WriteString("{broken json\n\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		require.NoError(t, s.Append("session-3", Turn{Role: "assistant", Content: "second"}))

		turns, err := s.Load("session-3")
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, "first", turns[0].Content)
		assert.Equal(t, "second", turns[1].Content)
	})
}

func TestSessionIDValidation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"path traversal", "../etc/passwd"},
		{"forward slash", "a/b"},
		{"backslash", "a\\b"},
		{"null byte", "a\x00b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.Append(tt.id, Turn{Role: "user", Content: "x"}))
			_, err := s.Load(tt.id)
			assert.Error(t, err)
		})
	}
}

func TestRecent(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Append("chat", Turn{Role: "user", Content: string(rune('a' + i))}))
	}

	t.Run("returns last n", func(t *testing.T) {
		turns, err := s.Recent("chat", 3)
		require.NoError(t, err)
		require.Len(t, turns, 3)
		assert.Equal(t, "h", turns[0].Content)
		assert.Equal(t, "j", turns[2].Content)
	})

	t.Run("n larger than transcript returns all", func(t *testing.T) {
		turns, err := s.Recent("chat", 100)
		require.NoError(t, err)
		assert.Len(t, turns, 10)
	})

	t.Run("non positive n returns all", func(t *testing.T) {
		turns, err := s.Recent("chat", 0)
		require.NoError(t, err)
		assert.Len(t, turns, 10)
	})
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append("morning", Turn{Role: "user", Content: "hi"}))
	require.NoError(t, s.Append("evening", Turn{Role: "user", Content: "bye"}))

	ids, err := s.Sessions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"morning", "evening"}, ids)
}
