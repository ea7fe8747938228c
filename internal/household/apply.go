package household

import (
	"github.com/hearthapp/hearth/internal/realtime"
)

// Apply merges one remote envelope into local state. Merging is idempotent:
// adds dedup on id, scalar updates take the latest value, receipt and vote
// sets only union. Undecodable payloads and unknown kinds are dropped so one
// bad frame never poisons the state.
//
// A foreign chat.message additionally triggers a delivery receipt from this
// client, both applied locally and broadcast.
func (s *Store) Apply(env realtime.Envelope) {
	switch env.Type {
	case KindMemberAdd:
		if m, ok := decodePayload[Member](env.Payload); ok {
			s.mu.Lock()
			s.state.Members = appendUnique(s.state.Members, m, func(x Member) string { return x.ID })
			s.mu.Unlock()
		}
	case KindEventAdd:
		if e, ok := decodePayload[CalendarEvent](env.Payload); ok {
			s.mu.Lock()
			s.state.Events = appendUnique(s.state.Events, e, func(x CalendarEvent) string { return x.ID })
			s.mu.Unlock()
		}
	case KindTaskAdd:
		if t, ok := decodePayload[Task](env.Payload); ok {
			s.mu.Lock()
			s.state.Tasks = appendUnique(s.state.Tasks, t, func(x Task) string { return x.ID })
			s.mu.Unlock()
		}
	case KindTaskToggle:
		if p, ok := decodePayload[TaskTogglePayload](env.Payload); ok {
			s.mu.Lock()
			for i := range s.state.Tasks {
				if s.state.Tasks[i].ID == p.ID {
					s.state.Tasks[i].Completed = p.Completed
					break
				}
			}
			s.mu.Unlock()
		}
	case KindListAdd:
		if l, ok := decodePayload[ShoppingList](env.Payload); ok {
			if l.Items == nil {
				l.Items = []ShoppingItem{}
			}
			s.mu.Lock()
			s.state.Lists = appendUnique(s.state.Lists, l, func(x ShoppingList) string { return x.ID })
			s.mu.Unlock()
		}
	case KindListItemAdd:
		if p, ok := decodePayload[ListItemAddPayload](env.Payload); ok {
			s.mu.Lock()
			for i := range s.state.Lists {
				if s.state.Lists[i].ID == p.ListID {
					s.state.Lists[i].Items = appendUnique(s.state.Lists[i].Items, p.Item,
						func(x ShoppingItem) string { return x.ID })
					break
				}
			}
			s.mu.Unlock()
		}
	case KindListItemToggle:
		if p, ok := decodePayload[ListItemTogglePayload](env.Payload); ok {
			s.mu.Lock()
			for i := range s.state.Lists {
				if s.state.Lists[i].ID != p.ListID {
					continue
				}
				for j := range s.state.Lists[i].Items {
					if s.state.Lists[i].Items[j].ID == p.ItemID {
						s.state.Lists[i].Items[j].Checked = p.Checked
						break
					}
				}
				break
			}
			s.mu.Unlock()
		}
	case KindTripAdd:
		if t, ok := decodePayload[Trip](env.Payload); ok {
			s.mu.Lock()
			s.state.Trips = appendUnique(s.state.Trips, t, func(x Trip) string { return x.ID })
			s.mu.Unlock()
		}
	case KindItineraryAdd:
		if it, ok := decodePayload[ItineraryItem](env.Payload); ok {
			s.mu.Lock()
			s.state.Itinerary = appendUnique(s.state.Itinerary, it, func(x ItineraryItem) string { return x.ID })
			s.mu.Unlock()
		}
	case KindPackingAdd:
		if p, ok := decodePayload[PackingItem](env.Payload); ok {
			s.mu.Lock()
			s.state.Packing = appendUnique(s.state.Packing, p, func(x PackingItem) string { return x.ID })
			s.mu.Unlock()
		}
	case KindPackingToggle:
		if p, ok := decodePayload[PackingTogglePayload](env.Payload); ok {
			s.mu.Lock()
			for i := range s.state.Packing {
				if s.state.Packing[i].ID == p.ID {
					s.state.Packing[i].Packed = p.Packed
					break
				}
			}
			s.mu.Unlock()
		}
	case KindBudgetAdd:
		if b, ok := decodePayload[BudgetEntry](env.Payload); ok {
			s.mu.Lock()
			s.state.Budgets = appendUnique(s.state.Budgets, b, func(x BudgetEntry) string { return x.ID })
			s.mu.Unlock()
		}
	case KindAnnouncementAdd:
		if a, ok := decodePayload[Announcement](env.Payload); ok {
			s.mu.Lock()
			s.state.Announcements = appendUnique(s.state.Announcements, a, func(x Announcement) string { return x.ID })
			s.mu.Unlock()
		}
	case KindDocumentAdd:
		if d, ok := decodePayload[DocumentItem](env.Payload); ok {
			s.mu.Lock()
			s.state.Documents = prependUnique(s.state.Documents, d, func(x DocumentItem) string { return x.ID })
			s.mu.Unlock()
		}
	case KindPhotoAdd:
		if p, ok := decodePayload[PhotoItem](env.Payload); ok {
			s.mu.Lock()
			s.state.Photos = prependUnique(s.state.Photos, p, func(x PhotoItem) string { return x.ID })
			s.mu.Unlock()
		}
	case KindAlbumAdd:
		if a, ok := decodePayload[Album](env.Payload); ok {
			s.mu.Lock()
			s.state.Albums = prependUnique(s.state.Albums, a, func(x Album) string { return x.ID })
			s.mu.Unlock()
		}
	case KindAlbumUpdate:
		if p, ok := decodePayload[AlbumUpdatePayload](env.Payload); ok {
			s.mu.Lock()
			for i := range s.state.Albums {
				if s.state.Albums[i].ID == p.ID {
					p.Patch.apply(&s.state.Albums[i])
					break
				}
			}
			s.mu.Unlock()
		}
	case KindMemoryAdd:
		if m, ok := decodePayload[MemoryItem](env.Payload); ok {
			if m.PhotoIDs == nil {
				m.PhotoIDs = []string{}
			}
			s.mu.Lock()
			s.state.Memories = prependUnique(s.state.Memories, m, func(x MemoryItem) string { return x.ID })
			s.mu.Unlock()
		}
	case KindMemoryUpdate:
		if p, ok := decodePayload[MemoryUpdatePayload](env.Payload); ok {
			s.mu.Lock()
			for i := range s.state.Memories {
				if s.state.Memories[i].ID == p.ID {
					p.Patch.apply(&s.state.Memories[i])
					break
				}
			}
			s.mu.Unlock()
		}
	case KindChatMessage:
		if m, ok := decodePayload[ChatMessage](env.Payload); ok {
			s.applyChatMessage(m)
		}
	case KindChatDelivered:
		if p, ok := decodePayload[ReceiptPayload](env.Payload); ok {
			s.mu.Lock()
			for i := range s.state.ChatMessages {
				if s.state.ChatMessages[i].ID == p.MessageID {
					s.state.ChatMessages[i].DeliveredBy = union(s.state.ChatMessages[i].DeliveredBy, p.MemberID)
					break
				}
			}
			s.mu.Unlock()
		}
	case KindChatRead:
		if p, ok := decodePayload[ReceiptPayload](env.Payload); ok {
			s.mu.Lock()
			for i := range s.state.ChatMessages {
				if s.state.ChatMessages[i].ID == p.MessageID {
					s.state.ChatMessages[i].ReadBy = union(s.state.ChatMessages[i].ReadBy, p.MemberID)
					break
				}
			}
			s.mu.Unlock()
		}
	case KindChatTyping:
		if p, ok := decodePayload[TypingPayload](env.Payload); ok {
			s.mu.Lock()
			if s.state.Typing == nil {
				s.state.Typing = make(map[string]int64)
			}
			s.state.Typing[p.MemberID] = p.TS
			s.mu.Unlock()
		}
	case KindPollAdd:
		if p, ok := decodePayload[Poll](env.Payload); ok {
			s.mu.Lock()
			s.state.Polls = prependUnique(s.state.Polls, p, func(x Poll) string { return x.ID })
			s.mu.Unlock()
		}
	case KindPollVote:
		if p, ok := decodePayload[PollVotePayload](env.Payload); ok {
			s.mu.Lock()
			s.applyVoteLocked(p.PollID, p.OptionID, p.MemberID)
			s.mu.Unlock()
		}
	case KindPresencePing:
		if p, ok := decodePayload[PresencePingPayload](env.Payload); ok {
			s.mu.Lock()
			if s.state.Presence == nil {
				s.state.Presence = make(map[string]int64)
			}
			s.state.Presence[p.MemberID] = p.TS
			s.mu.Unlock()
		}
	case KindPresenceOffline:
		if p, ok := decodePayload[PresenceOfflinePayload](env.Payload); ok {
			s.mu.Lock()
			delete(s.state.Presence, p.MemberID)
			s.mu.Unlock()
		}
	default:
		// Unknown kinds are newer peers talking; ignore them.
	}
}

// applyChatMessage inserts a foreign message and, when this client has not
// yet acknowledged it, records and broadcasts a delivery receipt.
func (s *Store) applyChatMessage(m ChatMessage) {
	s.mu.Lock()
	for _, existing := range s.state.ChatMessages {
		if existing.ID == m.ID {
			s.mu.Unlock()
			return
		}
	}
	s.state.ChatMessages = append(s.state.ChatMessages, m)
	selfID := s.currentMemberLocked()
	deliver := selfID != "" && m.SenderID != selfID && !contains(m.DeliveredBy, selfID)
	if deliver {
		last := len(s.state.ChatMessages) - 1
		s.state.ChatMessages[last].DeliveredBy = union(s.state.ChatMessages[last].DeliveredBy, selfID)
	}
	s.mu.Unlock()
	if deliver {
		s.publish(KindChatDelivered, ReceiptPayload{MessageID: m.ID, MemberID: selfID})
	}
}
