package household

import (
	"strings"
	"sync"
	"time"
)

const (
	// typingClearDelay is how long after the last keystroke the debouncer
	// clears the typing flag.
	typingClearDelay = 1200 * time.Millisecond

	// typingStaleAfter bounds how long consumers trust a typing timestamp.
	typingStaleAfter = 2 * time.Second

	// readBatchLimit caps how many messages one visible-read sweep marks.
	readBatchLimit = 10
)

// SendChatMessage posts a trimmed message from the acting member, who is
// implicitly in its delivered set, and broadcasts it. Blank messages and a
// missing sender are dropped.
func (s *Store) SendChatMessage(text string) (ChatMessage, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, false
	}
	s.mu.Lock()
	senderID := s.currentMemberLocked()
	if senderID == "" {
		s.mu.Unlock()
		return ChatMessage{}, false
	}
	msg := ChatMessage{
		ID:          s.newID(),
		SenderID:    senderID,
		Text:        text,
		CreatedAt:   s.nowISO(),
		DeliveredBy: []string{senderID},
		ReadBy:      []string{},
	}
	s.state.ChatMessages = append(s.state.ChatMessages, msg)
	s.mu.Unlock()
	s.publish(KindChatMessage, msg)
	return msg, true
}

// MarkDelivered unions the acting member into a message's delivered set and
// broadcasts the receipt.
func (s *Store) MarkDelivered(messageID string) {
	s.markReceipt(messageID, false)
}

// MarkRead unions the acting member into a message's read set and
// broadcasts the receipt.
func (s *Store) MarkRead(messageID string) {
	s.markReceipt(messageID, true)
}

func (s *Store) markReceipt(messageID string, read bool) {
	s.mu.Lock()
	memberID := s.currentMemberLocked()
	if memberID == "" {
		s.mu.Unlock()
		return
	}
	for i := range s.state.ChatMessages {
		if s.state.ChatMessages[i].ID != messageID {
			continue
		}
		if read {
			s.state.ChatMessages[i].ReadBy = union(s.state.ChatMessages[i].ReadBy, memberID)
		} else {
			s.state.ChatMessages[i].DeliveredBy = union(s.state.ChatMessages[i].DeliveredBy, memberID)
		}
		break
	}
	s.mu.Unlock()
	kind := KindChatDelivered
	if read {
		kind = KindChatRead
	}
	s.publish(kind, ReceiptPayload{MessageID: messageID, MemberID: memberID})
}

// MarkVisibleRead marks the most recent unread foreign messages as read, at
// most limit of them (the default batch when zero or negative), broadcasting
// one receipt per message. Callers gate this on the chat surface actually
// being visible and focused. Returns the ids marked.
func (s *Store) MarkVisibleRead(limit int) []string {
	if limit <= 0 {
		limit = readBatchLimit
	}
	s.mu.Lock()
	memberID := s.currentMemberLocked()
	if memberID == "" {
		s.mu.Unlock()
		return nil
	}
	var marked []string
	for i := len(s.state.ChatMessages) - 1; i >= 0 && len(marked) < limit; i-- {
		m := &s.state.ChatMessages[i]
		if m.SenderID == memberID || contains(m.ReadBy, memberID) {
			continue
		}
		m.ReadBy = union(m.ReadBy, memberID)
		marked = append(marked, m.ID)
	}
	s.mu.Unlock()
	for _, id := range marked {
		s.publish(KindChatRead, ReceiptPayload{MessageID: id, MemberID: memberID})
	}
	return marked
}

// SetTyping records the acting member's typing state (a zero timestamp
// clears it) and broadcasts it.
func (s *Store) SetTyping(isTyping bool) {
	s.mu.Lock()
	memberID := s.currentMemberLocked()
	if memberID == "" {
		s.mu.Unlock()
		return
	}
	var ts int64
	if isTyping {
		ts = s.nowMillis()
	}
	if s.state.Typing == nil {
		s.state.Typing = make(map[string]int64)
	}
	s.state.Typing[memberID] = ts
	s.mu.Unlock()
	s.publish(KindChatTyping, TypingPayload{MemberID: memberID, TS: ts})
}

// TypingActive reports whether a member typed within the staleness window.
// A zero or missing timestamp means not typing.
func (s *Store) TypingActive(memberID string, now time.Time) bool {
	s.mu.Lock()
	ts := s.state.Typing[memberID]
	s.mu.Unlock()
	if ts == 0 {
		return false
	}
	return now.Sub(time.UnixMilli(ts)) < typingStaleAfter
}

// TypingMembers lists members actively typing at the given instant.
func (s *Store) TypingMembers(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for memberID, ts := range s.state.Typing {
		if ts != 0 && now.Sub(time.UnixMilli(ts)) < typingStaleAfter {
			out = append(out, memberID)
		}
	}
	return out
}

// TypingDebouncer turns raw keystrokes into typing signals: the first
// keystroke sets typing, and a quiet period clears it. The clear timer is
// owned here and cancelled on every keystroke, so only the latest one fires.
type TypingDebouncer struct {
	store *Store
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewTypingDebouncer uses the default quiet period when delay is zero.
func NewTypingDebouncer(store *Store, delay time.Duration) *TypingDebouncer {
	if delay <= 0 {
		delay = typingClearDelay
	}
	return &TypingDebouncer{store: store, delay: delay}
}

// Keystroke marks the member typing and re-arms the clear timer.
func (d *TypingDebouncer) Keystroke() {
	d.store.SetTyping(true)
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.store.SetTyping(false)
	})
	d.mu.Unlock()
}

// Stop cancels any pending clear and clears the typing flag immediately.
func (d *TypingDebouncer) Stop() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.store.SetTyping(false)
}
