// Package sessionstoretest builds session-store fixtures for tests.
package sessionstoretest

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"

	"github.com/entrhq/tabwatch/pkg/sessionstore"
)

// Encode wraps doc in a valid container. Incompressible input is stored as a
// single literal run, which is still a valid LZ4 block.
func Encode(t testing.TB, doc []byte) []byte {
	t.Helper()

	if len(doc) == 0 {
		return Container(0, nil)
	}

	block := make([]byte, lz4.CompressBlockBound(len(doc)))
	n, err := lz4.CompressBlock(doc, block, nil)
	if err != nil {
		t.Fatalf("compress fixture: %v", err)
	}
	if n == 0 {
		block = LiteralBlock(doc)
	} else {
		block = block[:n]
	}

	return Container(uint32(len(doc)), block)
}

// Container prepends the magic and the declared size to an already
// compressed payload.
func Container(declared uint32, payload []byte) []byte {
	out := make([]byte, sessionstore.HeaderSize, sessionstore.HeaderSize+len(payload))
	copy(out, sessionstore.Magic)
	binary.LittleEndian.PutUint32(out[len(sessionstore.Magic):], declared)
	return append(out, payload...)
}

// LiteralBlock encodes doc as one LZ4 sequence with no match.
func LiteralBlock(doc []byte) []byte {
	if len(doc) == 0 {
		return nil
	}

	out := make([]byte, 0, len(doc)+len(doc)/255+2)
	if len(doc) < 15 {
		out = append(out, byte(len(doc)<<4))
	} else {
		out = append(out, 0xF0)
		rem := len(doc) - 15
		for rem >= 255 {
			out = append(out, 255)
			rem -= 255
		}
		out = append(out, byte(rem))
	}
	return append(out, doc...)
}

// Session describes an open-tabs document. Each window is a list of tabs and
// each tab lists its history URLs with the last one current.
type Session [][][]string

// JSON renders s in the browser's session-store shape.
func (s Session) JSON(t testing.TB) []byte {
	t.Helper()

	type entry struct {
		URL string `json:"url"`
	}
	type tab struct {
		Index   int     `json:"index"`
		Entries []entry `json:"entries"`
	}
	type window struct {
		Tabs []tab `json:"tabs"`
	}

	doc := struct {
		Version []any    `json:"version"`
		Windows []window `json:"windows"`
	}{Version: []any{"sessionrestore", 1}, Windows: []window{}}

	for _, w := range s {
		win := window{Tabs: []tab{}}
		for _, history := range w {
			tb := tab{Index: len(history), Entries: []entry{}}
			for _, u := range history {
				tb.Entries = append(tb.Entries, entry{URL: u})
			}
			win.Tabs = append(win.Tabs, tb)
		}
		doc.Windows = append(doc.Windows, win)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal session fixture: %v", err)
	}
	return data
}

// WriteFile encodes doc and writes it to dir/recovery.jsonlz4, returning the path.
func WriteFile(t testing.TB, dir string, doc []byte) string {
	t.Helper()

	path := filepath.Join(dir, "recovery.jsonlz4")
	Rewrite(t, path, doc)
	return path
}

// Rewrite replaces path atomically, the way the browser does: write a
// temporary file next to it and rename it over the original.
func Rewrite(t testing.TB, path string, doc []byte) {
	t.Helper()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, Encode(t, doc), 0o600); err != nil {
		t.Fatalf("write session fixture: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename session fixture: %v", err)
	}
}
