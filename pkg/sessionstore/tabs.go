package sessionstore

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// Tab is an open tab whose current navigation entry resolved to a URL.
type Tab struct {
	// Window is the 0-based position of the owning window.
	Window int
	// Tab is the 0-based position of the tab within its window.
	Tab int
	// URL of the entry selected by the tab's 1-based index.
	URL string
}

// ContainsURL reports whether any open tab's current URL starts with target.
func ContainsURL(doc []byte, target string) (bool, error) {
	return ContainsURLFunc(doc, target, nil)
}

// ContainsURLFunc is ContainsURL with a callback invoked for every tab
// visited before the walk stops. visit may be nil.
func ContainsURLFunc(doc []byte, target string, visit func(Tab)) (bool, error) {
	found := false
	err := walkTabs(doc, func(tab Tab) bool {
		if visit != nil {
			visit(tab)
		}
		if strings.HasPrefix(tab.URL, target) {
			found = true
			return false
		}
		return true
	})
	return found, err
}

// Tabs returns every open tab with a resolvable URL, in document order.
func Tabs(doc []byte) ([]Tab, error) {
	var tabs []Tab
	err := walkTabs(doc, func(tab Tab) bool {
		tabs = append(tabs, tab)
		return true
	})
	return tabs, err
}

// walkTabs calls fn for each tab in windows[*].tabs[*] whose entries[index-1].url
// is a string. Tabs that do not resolve are skipped. fn returns false to stop.
func walkTabs(doc []byte, fn func(Tab) bool) error {
	if !gjson.ValidBytes(doc) {
		return &ParseError{Size: len(doc)}
	}

	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil
	}

	windows := root.Get("windows")
	if !windows.IsArray() {
		return nil
	}

	windowPos := 0
	windows.ForEach(func(_, window gjson.Result) bool {
		tabPos := 0
		keepGoing := true
		tabs := window.Get("tabs")
		if !tabs.IsArray() {
			windowPos++
			return true
		}
		tabs.ForEach(func(_, tab gjson.Result) bool {
			url, ok := currentURL(tab)
			if ok {
				keepGoing = fn(Tab{Window: windowPos, Tab: tabPos, URL: url})
			}
			tabPos++
			return keepGoing
		})
		windowPos++
		return keepGoing
	})

	return nil
}

// currentURL resolves entries[index-1].url for a single tab record.
func currentURL(tab gjson.Result) (string, bool) {
	if !tab.IsObject() {
		return "", false
	}

	index := tab.Get("index")
	if index.Type != gjson.Number || index.Num != math.Trunc(index.Num) {
		return "", false
	}

	entries := tab.Get("entries")
	if !entries.IsArray() {
		return "", false
	}

	list := entries.Array()
	pos := index.Num - 1
	if pos < 0 || pos >= float64(len(list)) {
		return "", false
	}

	entry := list[int(pos)]
	if !entry.IsObject() {
		return "", false
	}

	url := entry.Get("url")
	if url.Type != gjson.String {
		return "", false
	}
	return url.Str, true
}
