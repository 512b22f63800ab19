package sessionstore

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Outcome is the result of a single poll of the session store.
type Outcome int

const (
	// OutcomeAbsent means the file was readable and no tab holds the URL.
	OutcomeAbsent Outcome = iota
	// OutcomePresent means at least one tab's current URL matches.
	OutcomePresent
	// OutcomeUnreadable means the file could not be read, decoded or parsed.
	OutcomeUnreadable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAbsent:
		return "absent"
	case OutcomePresent:
		return "present"
	case OutcomeUnreadable:
		return "unreadable"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Probe checks one session-store file for one URL.
type Probe struct {
	// Path of the session-store file.
	Path string
	// URL to look for, matched as a literal prefix.
	URL string
	// Decoder limits; the zero value uses the defaults.
	Decoder Decoder
	// OnTab, if set, receives every tab visited during a poll.
	OnTab func(Tab)
}

// Poll reads, decodes and indexes the file once. The returned error is nil
// unless the outcome is OutcomeUnreadable.
func (p *Probe) Poll(ctx context.Context) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return OutcomeUnreadable, err
	}

	doc, err := p.Read()
	if err != nil {
		return OutcomeUnreadable, err
	}

	found, err := ContainsURLFunc(doc, p.URL, p.OnTab)
	if err != nil {
		return OutcomeUnreadable, err
	}
	if found {
		return OutcomePresent, nil
	}
	return OutcomeAbsent, nil
}

// Read loads the file fresh from disk and returns the decompressed document.
func (p *Probe) Read() ([]byte, error) {
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, &IOError{Path: p.Path, Err: err}
	}
	return p.Decoder.Decode(raw)
}

// Dir returns the directory containing path: everything before the final
// '/' or '\'. A path without a separator lives in ".".
func Dir(path string) string {
	i := strings.LastIndexAny(path, `/\`)
	switch {
	case i < 0:
		return "."
	case i == 0:
		return path[:1]
	default:
		return path[:i]
	}
}
