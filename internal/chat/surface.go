package chat

import (
	"sync"
	"unicode/utf8"
)

// Surface is the scrollable region a conversation is rendered into.
// Heights are measured after Render returns.
type Surface interface {
	Render(entries []Entry)
	ScrollHeight() int
	ClientHeight() int
	ScrollTop() int
	SetScrollTop(offset int)
}

// bottomSlack is how close to the end still counts as "at the bottom"
const bottomSlack = 16

func atBottom(s Surface) bool {
	return s.ScrollTop()+s.ClientHeight() >= s.ScrollHeight()-bottomSlack
}

func scrollToBottom(s Surface) {
	s.SetScrollTop(s.ScrollHeight() - s.ClientHeight())
}

// renderAnchored renders entries and shifts the offset by the height added
// above the reading position, so prepended content does not move the view
func renderAnchored(s Surface, entries []Entry) {
	before := s.ScrollHeight()
	s.Render(entries)
	after := s.ScrollHeight()
	s.SetScrollTop(s.ScrollTop() + after - before)
}

// ListViewport is a headless Surface measuring rows as wrapped text lines
type ListViewport struct {
	mu         sync.Mutex
	entries    []Entry
	heights    []int
	height     int
	top        int
	lineHeight int
	columns    int
}

// NewListViewport creates a viewport clientHeight pixels tall
func NewListViewport(clientHeight int) *ListViewport {
	return &ListViewport{height: clientHeight, lineHeight: 20, columns: 48}
}

// Render measures every row
func (v *ListViewport) Render(entries []Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries[:0], entries...)
	v.heights = v.heights[:0]
	for _, e := range entries {
		v.heights = append(v.heights, v.measure(e))
	}
	v.clampLocked()
}

func (v *ListViewport) measure(e Entry) int {
	lines := utf8.RuneCountInString(e.Message.Body)/v.columns + 1
	h := lines*v.lineHeight + 8
	if e.State == StateFailed {
		h += v.lineHeight
	}
	return h
}

func (v *ListViewport) ScrollHeight() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollHeightLocked()
}

func (v *ListViewport) scrollHeightLocked() int {
	total := 0
	for _, h := range v.heights {
		total += h
	}
	return total
}

func (v *ListViewport) ClientHeight() int {
	return v.height
}

func (v *ListViewport) ScrollTop() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.top
}

func (v *ListViewport) SetScrollTop(offset int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.top = offset
	v.clampLocked()
}

func (v *ListViewport) clampLocked() {
	max := v.scrollHeightLocked() - v.height
	if max < 0 {
		max = 0
	}
	if v.top > max {
		v.top = max
	}
	if v.top < 0 {
		v.top = 0
	}
}

// Visible returns the entries intersecting the viewport
func (v *ListViewport) Visible() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []Entry
	y := 0
	for i, h := range v.heights {
		if y+h > v.top && y < v.top+v.height {
			out = append(out, v.entries[i])
		}
		y += h
	}
	return out
}

// Rendered returns everything passed to the last Render
func (v *ListViewport) Rendered() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}
