package chat

import (
	"sort"
	"strings"
	"time"

	"github.com/damoang/angple-realtime/internal/domain"
)

// DeliveryState of one entry in a conversation view
type DeliveryState string

const (
	StateSent    DeliveryState = "sent"
	StatePending DeliveryState = "pending"
	StateFailed  DeliveryState = "failed"
)

const localIDPrefix = "local-"

// Entry is one rendered message. LocalID is set for messages sent from this view
// and survives the swap to the persisted record.
type Entry struct {
	Message domain.Message
	LocalID string
	State   DeliveryState
	Err     error
}

// Confirmed reports whether the entry carries a server-assigned id
func (e Entry) Confirmed() bool {
	return e.State == StateSent
}

// View is the ordered message list of one conversation.
// Entries are sorted by timestamp then id and never contain the same id twice.
type View struct {
	entries []Entry
	hasMore bool
}

// NewView returns an empty view that may still have history to load
func NewView() *View {
	return &View{hasMore: true}
}

// Entries returns a copy of the entries in display order
func (v *View) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Messages returns the confirmed messages in display order
func (v *View) Messages() []domain.Message {
	var out []domain.Message
	for _, e := range v.entries {
		if e.Confirmed() {
			out = append(out, e.Message)
		}
	}
	return out
}

// Len returns the number of entries
func (v *View) Len() int {
	return len(v.entries)
}

// HasMore reports whether older history may exist
func (v *View) HasMore() bool {
	return v.hasMore
}

// OldestLoaded returns the cursor for the next older page
func (v *View) OldestLoaded() (time.Time, bool) {
	for _, e := range v.entries {
		if e.Confirmed() {
			return e.Message.Timestamp, true
		}
	}
	return time.Time{}, false
}

// behindCursor reports whether m sits before the loaded window while older
// pages remain; paging will deliver it in order
func (v *View) behindCursor(m domain.Message) bool {
	if !v.hasMore {
		return false
	}
	for _, e := range v.entries {
		if e.Confirmed() {
			return domain.Less(m, e.Message)
		}
	}
	return false
}

// NewestConfirmed returns the latest persisted message
func (v *View) NewestConfirmed() (domain.Message, bool) {
	for i := len(v.entries) - 1; i >= 0; i-- {
		if v.entries[i].Confirmed() {
			return v.entries[i].Message, true
		}
	}
	return domain.Message{}, false
}

// Contains reports whether a message id is present
func (v *View) Contains(id string) bool {
	return v.indexOf(id) >= 0
}

// Clone returns an independent copy
func (v *View) Clone() *View {
	return &View{entries: v.Entries(), hasMore: v.hasMore}
}

func (v *View) indexOf(id string) int {
	for i, e := range v.entries {
		if e.Message.ID == id {
			return i
		}
	}
	return -1
}

func (v *View) indexOfLocal(localID string) int {
	for i, e := range v.entries {
		if e.LocalID == localID {
			return i
		}
	}
	return -1
}

// merge adds persisted messages, skipping ids already present, and restores order.
// It returns the number of messages added.
func (v *View) merge(msgs []domain.Message) int {
	added := 0
	for _, m := range msgs {
		if m.ID == "" || v.Contains(m.ID) {
			continue
		}
		v.entries = append(v.entries, Entry{Message: m, State: StateSent})
		added++
	}
	if added > 0 {
		v.sort()
	}
	return added
}

// addLocal appends an unsent message
func (v *View) addLocal(e Entry) {
	v.entries = append(v.entries, e)
	v.sort()
}

// confirm swaps a local entry for its persisted record
func (v *View) confirm(localID string, persisted domain.Message) bool {
	i := v.indexOfLocal(localID)
	if i < 0 {
		return false
	}
	if v.Contains(persisted.ID) {
		// the echo won the race; keep the echo and drop the placeholder
		v.entries = append(v.entries[:i], v.entries[i+1:]...)
		return true
	}
	v.entries[i] = Entry{Message: persisted, LocalID: localID, State: StateSent}
	v.sort()
	return true
}

func (v *View) setState(localID string, state DeliveryState, err error) (Entry, bool) {
	i := v.indexOfLocal(localID)
	if i < 0 {
		return Entry{}, false
	}
	v.entries[i].State = state
	v.entries[i].Err = err
	return v.entries[i], true
}

func (v *View) remove(localID string) bool {
	i := v.indexOfLocal(localID)
	if i < 0 {
		return false
	}
	v.entries = append(v.entries[:i], v.entries[i+1:]...)
	return true
}

// sort keeps unsent entries after every persisted message and orders each group
func (v *View) sort() {
	sort.SliceStable(v.entries, func(i, j int) bool {
		a, b := v.entries[i], v.entries[j]
		if a.Confirmed() != b.Confirmed() {
			return a.Confirmed()
		}
		return domain.Less(a.Message, b.Message)
	})
}

func isLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}
