package household

// Envelope type tags. The set is closed: the reducer dispatches over exactly
// these kinds and ignores anything else, so older stores tolerate newer
// peers. Meal plans, pantry, recipes and finance records are local-only and
// have no tags.
const (
	KindMemberAdd       = "member.add"
	KindEventAdd        = "event.add"
	KindTaskAdd         = "task.add"
	KindTaskToggle      = "task.toggle"
	KindListAdd         = "list.add"
	KindListItemAdd     = "list.item.add"
	KindListItemToggle  = "list.item.toggle"
	KindTripAdd         = "trip.add"
	KindItineraryAdd    = "itinerary.add"
	KindPackingAdd      = "packing.add"
	KindPackingToggle   = "packing.toggle"
	KindBudgetAdd       = "budget.add"
	KindAnnouncementAdd = "announcement.add"
	KindDocumentAdd     = "document.add"
	KindPhotoAdd        = "photo.add"
	KindAlbumAdd        = "album.add"
	KindAlbumUpdate     = "album.update"
	KindMemoryAdd       = "memory.add"
	KindMemoryUpdate    = "memory.update"
	KindChatMessage     = "chat.message"
	KindChatDelivered   = "chat.delivered"
	KindChatRead        = "chat.read"
	KindChatTyping      = "chat.typing"
	KindPollAdd         = "poll.add"
	KindPollVote        = "poll.vote"
	KindPresencePing    = "presence.ping"
	KindPresenceOffline = "presence.offline"
)

// TaskTogglePayload carries the computed next completion state, not a blind
// flip, so duplicate delivery converges.
type TaskTogglePayload struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
}

// ListItemAddPayload adds an item to an existing list.
type ListItemAddPayload struct {
	ListID string       `json:"listId"`
	Item   ShoppingItem `json:"item"`
}

// ListItemTogglePayload sets an item's checked state.
type ListItemTogglePayload struct {
	ListID  string `json:"listId"`
	ItemID  string `json:"itemId"`
	Checked bool   `json:"checked"`
}

// PackingTogglePayload sets a packing item's packed state.
type PackingTogglePayload struct {
	ID     string `json:"id"`
	Packed bool   `json:"packed"`
}

// AlbumUpdatePayload applies a field patch to an album.
type AlbumUpdatePayload struct {
	ID    string     `json:"id"`
	Patch AlbumPatch `json:"patch"`
}

// MemoryUpdatePayload applies a field patch to a memory.
type MemoryUpdatePayload struct {
	ID    string      `json:"id"`
	Patch MemoryPatch `json:"patch"`
}

// ReceiptPayload acknowledges delivery or reading of one chat message by
// one member.
type ReceiptPayload struct {
	MessageID string `json:"messageId"`
	MemberID  string `json:"memberId"`
}

// TypingPayload signals keystroke activity; TS of zero clears. Consumers
// must also treat entries older than two seconds as stale.
type TypingPayload struct {
	MemberID string `json:"memberId"`
	TS       int64  `json:"ts"`
}

// PollVotePayload records one member's vote on one option.
type PollVotePayload struct {
	PollID   string `json:"pollId"`
	OptionID string `json:"optionId"`
	MemberID string `json:"memberId"`
}

// PresencePingPayload stamps a member's heartbeat, epoch milliseconds.
type PresencePingPayload struct {
	MemberID string `json:"memberId"`
	TS       int64  `json:"ts"`
}

// PresenceOfflinePayload removes a member's presence entry.
type PresenceOfflinePayload struct {
	MemberID string `json:"memberId"`
}
