package sessionstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabwatch/pkg/sessionstore"
	"github.com/entrhq/tabwatch/pkg/sessionstore/sessionstoretest"
)

func TestProbe_Poll(t *testing.T) {
	dir := t.TempDir()
	path := sessionstoretest.WriteFile(t, dir, sessionstoretest.Session{{{"https://example.com/"}}}.JSON(t))

	var seen []string
	probe := &sessionstore.Probe{
		Path:  path,
		URL:   "https://example.com",
		OnTab: func(tab sessionstore.Tab) { seen = append(seen, tab.URL) },
	}

	outcome, err := probe.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sessionstore.OutcomePresent, outcome)
	assert.Equal(t, []string{"https://example.com/"}, seen)

	// The browser replaces the file between polls; every poll rereads it.
	sessionstoretest.Rewrite(t, path, sessionstoretest.Session{{{"https://other.test/"}}}.JSON(t))

	outcome, err = probe.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sessionstore.OutcomeAbsent, outcome)
}

func TestProbe_Poll_MissingFile(t *testing.T) {
	probe := &sessionstore.Probe{Path: filepath.Join(t.TempDir(), "missing.jsonlz4"), URL: "https://example.com"}

	outcome, err := probe.Poll(context.Background())
	require.Error(t, err)
	assert.Equal(t, sessionstore.OutcomeUnreadable, outcome)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, sessionstore.IsRetryable(err))

	var ioErr *sessionstore.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestProbe_Poll_Unreadable(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		wantErr error
	}{
		{"zero length", []byte{}, sessionstore.ErrTooShort},
		{"bad magic", []byte("notmagic\x02\x00\x00\x00\x20{}"), sessionstore.ErrBadMagic},
		{"invalid json", sessionstoretest.Encode(t, []byte(`{"windows":`)), sessionstore.ErrParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "recovery.jsonlz4")
			require.NoError(t, os.WriteFile(path, tt.content, 0o600))

			probe := &sessionstore.Probe{Path: path, URL: "https://example.com"}
			outcome, err := probe.Poll(context.Background())
			assert.Equal(t, sessionstore.OutcomeUnreadable, outcome)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, sessionstore.IsRetryable(err))
		})
	}
}

func TestProbe_Poll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := &sessionstore.Probe{Path: "unused", URL: "https://example.com"}
	_, err := probe.Poll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDir(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home/u/.mozilla/firefox/p/sessionstore-backups/recovery.jsonlz4", "/home/u/.mozilla/firefox/p/sessionstore-backups"},
		{`C:\Users\u\AppData\Roaming\Mozilla\Firefox\p\sessionstore-backups\recovery.jsonlz4`, `C:\Users\u\AppData\Roaming\Mozilla\Firefox\p\sessionstore-backups`},
		{"recovery.jsonlz4", "."},
		{"/recovery.jsonlz4", "/"},
		{"a/b\\c", "a/b"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sessionstore.Dir(tt.path), tt.path)
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "present", sessionstore.OutcomePresent.String())
	assert.Equal(t, "absent", sessionstore.OutcomeAbsent.String())
	assert.Equal(t, "unreadable", sessionstore.OutcomeUnreadable.String())
	assert.Equal(t, "outcome(9)", sessionstore.Outcome(9).String())
}
