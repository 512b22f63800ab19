// Package sessionstore reads the browser's session-recovery file and answers
// whether a given URL is open in any tab.
//
// The file is a small proprietary container around an LZ4 block:
//
//	offset  size  field
//	0       8     magic "mozLz40\x00"
//	8       4     decompressed size, little-endian uint32
//	12      ...   LZ4 block payload
//
// The decompressed payload is a JSON document. Only the path
// windows[*].tabs[*].entries[index-1].url is consulted; everything else is
// ignored.
//
// Example usage:
//
//	probe := &sessionstore.Probe{Path: path, URL: "https://example.com"}
//	outcome, err := probe.Poll(ctx)
//	if err != nil && sessionstore.IsRetryable(err) {
//		// torn write, try again later
//	}
//
// The file is reopened on every poll. The browser rewrites it atomically
// between polls, so a long-lived handle would observe a stale inode.
package sessionstore
