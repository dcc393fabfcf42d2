package aggregates

import (
	"kgexplorer/domain/core/valueobjects"
)

// NavigationHistory is a back/forward stack of focused nodes with browser-history semantics.
// Invariant: 0 <= index < len(entries) when non-empty, index == -1 when empty.
type NavigationHistory struct {
	entries    []valueobjects.NodeID
	index      int
	focused    valueobjects.NodeID
	origin     valueobjects.NodeID
	maxEntries int
}

// NavigationSnapshot is a read-only view of the navigation state
type NavigationSnapshot struct {
	History       []valueobjects.NodeID `json:"history"`
	HistoryIndex  int                   `json:"historyIndex"`
	FocusedNodeID valueobjects.NodeID   `json:"focusedNodeId"`
	OriginNodeID  valueobjects.NodeID   `json:"originNodeId"`
	CanGoBack     bool                  `json:"canGoBack"`
	CanGoForward  bool                  `json:"canGoForward"`
}

// NewNavigationHistory creates an empty history. maxEntries <= 0 means unbounded.
func NewNavigationHistory(maxEntries int) *NavigationHistory {
	return &NavigationHistory{
		entries:    []valueobjects.NodeID{},
		index:      -1,
		maxEntries: maxEntries,
	}
}

// NavigateToNode truncates forward entries, appends id and focuses it
func (h *NavigationHistory) NavigateToNode(id valueobjects.NodeID) {
	if id.IsZero() {
		return
	}

	h.entries = append(h.entries[:h.index+1], id)
	h.index = len(h.entries) - 1

	if h.maxEntries > 0 && len(h.entries) > h.maxEntries {
		drop := len(h.entries) - h.maxEntries
		h.entries = append([]valueobjects.NodeID(nil), h.entries[drop:]...)
		h.index -= drop
	}

	h.focused = id
	h.origin = id
}

// NavigateBack moves one entry back. It is a no-op at the first entry.
func (h *NavigationHistory) NavigateBack() bool {
	if h.index <= 0 {
		return false
	}
	h.index--
	h.focusCurrent()
	return true
}

// NavigateForward moves one entry forward. It is a no-op at the last entry.
func (h *NavigationHistory) NavigateForward() bool {
	if h.index < 0 || h.index >= len(h.entries)-1 {
		return false
	}
	h.index++
	h.focusCurrent()
	return true
}

// SetFocusedNodeID changes the focus without touching history
func (h *NavigationHistory) SetFocusedNodeID(id valueobjects.NodeID) {
	h.focused = id
}

// Current returns the entry at the current index
func (h *NavigationHistory) Current() (valueobjects.NodeID, bool) {
	if h.index < 0 {
		return valueobjects.NodeID{}, false
	}
	return h.entries[h.index], true
}

// Entries returns a copy of the history entries
func (h *NavigationHistory) Entries() []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, len(h.entries))
	copy(out, h.entries)
	return out
}

// Index returns the current index, -1 when the history is empty
func (h *NavigationHistory) Index() int {
	return h.index
}

// Len returns the number of entries
func (h *NavigationHistory) Len() int {
	return len(h.entries)
}

// FocusedNodeID returns the focused node
func (h *NavigationHistory) FocusedNodeID() valueobjects.NodeID {
	return h.focused
}

// OriginNodeID returns the node the user last navigated to
func (h *NavigationHistory) OriginNodeID() valueobjects.NodeID {
	return h.origin
}

// Snapshot returns a copy of the navigation state
func (h *NavigationHistory) Snapshot() NavigationSnapshot {
	return NavigationSnapshot{
		History:       h.Entries(),
		HistoryIndex:  h.index,
		FocusedNodeID: h.focused,
		OriginNodeID:  h.origin,
		CanGoBack:     h.index > 0,
		CanGoForward:  h.index >= 0 && h.index < len(h.entries)-1,
	}
}

// Reset clears history and focus
func (h *NavigationHistory) Reset() {
	h.entries = []valueobjects.NodeID{}
	h.index = -1
	h.focused = valueobjects.NodeID{}
	h.origin = valueobjects.NodeID{}
}

func (h *NavigationHistory) focusCurrent() {
	current := h.entries[h.index]
	h.focused = current
	h.origin = current
}
