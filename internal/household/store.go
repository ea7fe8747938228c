package household

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/hearth/internal/realtime"
)

// Publisher is the outbound half of the realtime transport. The store never
// sees its own publishes back; local mutation covers the local side.
type Publisher interface {
	Publish(realtime.Envelope)
}

// Options configures a Store. Zero-value fields get working defaults.
type Options struct {
	// Publisher receives broadcast envelopes. Nil disables broadcasting;
	// every mutator still applies locally.
	Publisher Publisher

	Logger *slog.Logger

	// AllowedNames restricts sign-up and sign-in. Empty means the default
	// family roster.
	AllowedNames []string

	// Seed replaces the default initial state.
	Seed *State

	// Now and NewID exist for tests.
	Now   func() time.Time
	NewID func() string
}

// Store is the single mutation entry point for household state. Mutators
// apply locally first and then broadcast; Apply folds remote envelopes in.
type Store struct {
	mu      sync.Mutex
	pub     Publisher
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
	allowed map[string]struct{}
	state   State
}

// NewStore builds a store around the seed state (or the default seeded
// household when none is given).
func NewStore(opts Options) *Store {
	s := &Store{
		pub:    opts.Publisher,
		logger: opts.Logger,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	names := opts.AllowedNames
	if len(names) == 0 {
		names = DefaultAllowedNames()
	}
	s.allowed = make(map[string]struct{}, len(names))
	for _, n := range names {
		s.allowed[n] = struct{}{}
	}
	if opts.Seed != nil {
		s.state = normalizeState(*opts.Seed)
	} else {
		s.state = Seed()
	}
	return s
}

func (s *Store) nowISO() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// publish encodes and sends an envelope. Must not be called while holding
// the store mutex: the transport can deliver synchronously to peer stores
// whose reducers publish back.
func (s *Store) publish(kind string, payload any) {
	if s.pub == nil {
		return
	}
	env, ok := realtime.NewEnvelope(kind, payload)
	if !ok {
		s.logger.Warn("dropping unencodable envelope", "kind", kind)
		return
	}
	s.pub.Publish(env)
}

// logActivityLocked appends a feed line. Caller holds the mutex.
func (s *Store) logActivityLocked(typ, message string) {
	s.state.Activity = append(s.state.Activity, ActivityItem{
		ID:        s.newID(),
		Type:      typ,
		Message:   message,
		CreatedAt: s.nowISO(),
	})
}

// currentMemberLocked resolves the acting member: the signed-in member, or
// the first roster member when nobody is signed in. Caller holds the mutex.
func (s *Store) currentMemberLocked() string {
	if s.state.CurrentMemberID != "" {
		return s.state.CurrentMemberID
	}
	if len(s.state.Members) > 0 {
		return s.state.Members[0].ID
	}
	return ""
}

// CurrentMemberID returns the signed-in member id, empty when signed out.
func (s *Store) CurrentMemberID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentMemberID
}

// CurrentMember returns the signed-in member.
func (s *Store) CurrentMember() (Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentMemberID == "" {
		return Member{}, false
	}
	for _, m := range s.state.Members {
		if m.ID == s.state.CurrentMemberID {
			return m, true
		}
	}
	return Member{}, false
}

// AddMember adds a roster member locally. Sign-up is the broadcasting path.
func (s *Store) AddMember(name string, role Role) Member {
	s.mu.Lock()
	m := Member{ID: s.newID(), Name: name, Role: role}
	s.state.Members = append(s.state.Members, m)
	s.mu.Unlock()
	return m
}

// AddCategory adds a calendar category. Local only.
func (s *Store) AddCategory(name, color string) EventCategory {
	s.mu.Lock()
	c := EventCategory{ID: s.newID(), Name: name, Color: color}
	s.state.Categories = append(s.state.Categories, c)
	s.mu.Unlock()
	return c
}

// AddEvent creates a calendar event and broadcasts it. The given ID is
// replaced.
func (s *Store) AddEvent(e CalendarEvent) CalendarEvent {
	s.mu.Lock()
	e.ID = s.newID()
	s.state.Events = append(s.state.Events, e)
	s.logActivityLocked("event", "Event added: "+e.Title)
	s.mu.Unlock()
	s.publish(KindEventAdd, e)
	return e
}

// AddTask creates an open task and broadcasts it.
func (s *Store) AddTask(t Task) Task {
	s.mu.Lock()
	t.ID = s.newID()
	t.Completed = false
	s.state.Tasks = append(s.state.Tasks, t)
	s.logActivityLocked("task", "Task created: "+t.Title)
	s.mu.Unlock()
	s.publish(KindTaskAdd, t)
	return t
}

// ToggleTask flips a task's completion and broadcasts the computed state so
// duplicate delivery converges. An unknown id still broadcasts completed.
func (s *Store) ToggleTask(id string) {
	s.mu.Lock()
	next := true
	for i := range s.state.Tasks {
		if s.state.Tasks[i].ID == id {
			next = !s.state.Tasks[i].Completed
			s.state.Tasks[i].Completed = next
			break
		}
	}
	s.logActivityLocked("task", "Task toggled: "+id)
	s.mu.Unlock()
	s.publish(KindTaskToggle, TaskTogglePayload{ID: id, Completed: next})
}

// AddList creates a shopping list and broadcasts it.
func (s *Store) AddList(name, store string) ShoppingList {
	s.mu.Lock()
	l := ShoppingList{ID: s.newID(), Name: name, Store: store, Items: []ShoppingItem{}}
	s.state.Lists = append(s.state.Lists, l)
	s.logActivityLocked("list", "List created: "+name)
	s.mu.Unlock()
	s.publish(KindListAdd, l)
	return l
}

// AddItemToList appends an unchecked item to a list and broadcasts it.
func (s *Store) AddItemToList(listID string, item ShoppingItem) ShoppingItem {
	s.mu.Lock()
	item.ID = s.newID()
	item.Checked = false
	for i := range s.state.Lists {
		if s.state.Lists[i].ID == listID {
			s.state.Lists[i].Items = append(s.state.Lists[i].Items, item)
			break
		}
	}
	s.logActivityLocked("list", "Item added: "+item.Name)
	s.mu.Unlock()
	s.publish(KindListItemAdd, ListItemAddPayload{ListID: listID, Item: item})
	return item
}

// ToggleItem flips a shopping item's checked state and broadcasts the
// computed value.
func (s *Store) ToggleItem(listID, itemID string) {
	s.mu.Lock()
	next := true
	for i := range s.state.Lists {
		if s.state.Lists[i].ID != listID {
			continue
		}
		for j := range s.state.Lists[i].Items {
			if s.state.Lists[i].Items[j].ID == itemID {
				next = !s.state.Lists[i].Items[j].Checked
				s.state.Lists[i].Items[j].Checked = next
				break
			}
		}
		break
	}
	s.logActivityLocked("list", "Item toggled")
	s.mu.Unlock()
	s.publish(KindListItemToggle, ListItemTogglePayload{ListID: listID, ItemID: itemID, Checked: next})
}

// AddTrip creates a trip and broadcasts it.
func (s *Store) AddTrip(t Trip) Trip {
	s.mu.Lock()
	t.ID = s.newID()
	s.state.Trips = append(s.state.Trips, t)
	s.logActivityLocked("trip", "Trip created: "+t.Title)
	s.mu.Unlock()
	s.publish(KindTripAdd, t)
	return t
}

// AddItineraryItem creates an itinerary entry and broadcasts it.
func (s *Store) AddItineraryItem(i ItineraryItem) ItineraryItem {
	s.mu.Lock()
	i.ID = s.newID()
	s.state.Itinerary = append(s.state.Itinerary, i)
	s.logActivityLocked("itinerary", "Itinerary added: "+i.Title)
	s.mu.Unlock()
	s.publish(KindItineraryAdd, i)
	return i
}

// AddPackingItem creates an unpacked packing entry and broadcasts it.
func (s *Store) AddPackingItem(p PackingItem) PackingItem {
	s.mu.Lock()
	p.ID = s.newID()
	p.Packed = false
	s.state.Packing = append(s.state.Packing, p)
	s.logActivityLocked("packing", "Packing item: "+p.Name)
	s.mu.Unlock()
	s.publish(KindPackingAdd, p)
	return p
}

// TogglePacked flips a packing item's state and broadcasts the computed
// value.
func (s *Store) TogglePacked(id string) {
	s.mu.Lock()
	next := true
	for i := range s.state.Packing {
		if s.state.Packing[i].ID == id {
			next = !s.state.Packing[i].Packed
			s.state.Packing[i].Packed = next
			break
		}
	}
	s.logActivityLocked("packing", "Packing toggled")
	s.mu.Unlock()
	s.publish(KindPackingToggle, PackingTogglePayload{ID: id, Packed: next})
}

// AddBudgetEntry records spending and broadcasts it.
func (s *Store) AddBudgetEntry(b BudgetEntry) BudgetEntry {
	s.mu.Lock()
	b.ID = s.newID()
	s.state.Budgets = append(s.state.Budgets, b)
	s.logActivityLocked("budget", "Budget entry: "+b.Category+" "+formatAmount(b.Amount)+b.Currency)
	s.mu.Unlock()
	s.publish(KindBudgetAdd, b)
	return b
}

// AddMealPlan plans a meal. Local only.
func (s *Store) AddMealPlan(m MealPlan) MealPlan {
	s.mu.Lock()
	m.ID = s.newID()
	s.state.MealPlans = append(s.state.MealPlans, m)
	s.logActivityLocked("task", "Meal planned: "+m.Title+" ("+string(m.MealType)+")")
	s.mu.Unlock()
	return m
}

// UpdateMealPlan patches a planned meal. Local only.
func (s *Store) UpdateMealPlan(id string, patch MealPlanPatch) {
	s.mu.Lock()
	for i := range s.state.MealPlans {
		if s.state.MealPlans[i].ID == id {
			patch.apply(&s.state.MealPlans[i])
			break
		}
	}
	s.mu.Unlock()
}

// RemoveMealPlan deletes a planned meal. Deletions do not broadcast.
func (s *Store) RemoveMealPlan(id string) {
	s.mu.Lock()
	s.state.MealPlans = removeByID(s.state.MealPlans, id, func(m MealPlan) string { return m.ID })
	s.mu.Unlock()
}

// AddPantryItem stocks the pantry. Local only.
func (s *Store) AddPantryItem(p PantryItem) PantryItem {
	s.mu.Lock()
	p.ID = s.newID()
	s.state.Pantry = append(s.state.Pantry, p)
	s.logActivityLocked("list", "Pantry item: "+p.Name)
	s.mu.Unlock()
	return p
}

// UpdatePantryItem patches pantry stock. Local only.
func (s *Store) UpdatePantryItem(id string, patch PantryItemPatch) {
	s.mu.Lock()
	for i := range s.state.Pantry {
		if s.state.Pantry[i].ID == id {
			patch.apply(&s.state.Pantry[i])
			break
		}
	}
	s.mu.Unlock()
}

// AddRecipe stores a recipe. Local only.
func (s *Store) AddRecipe(r Recipe) Recipe {
	s.mu.Lock()
	r.ID = s.newID()
	s.state.Recipes = append(s.state.Recipes, r)
	s.mu.Unlock()
	return r
}

// UpdateRecipe patches a recipe. Local only.
func (s *Store) UpdateRecipe(id string, patch RecipePatch) {
	s.mu.Lock()
	for i := range s.state.Recipes {
		if s.state.Recipes[i].ID == id {
			patch.apply(&s.state.Recipes[i])
			break
		}
	}
	s.mu.Unlock()
}

// RemoveRecipe deletes a recipe. Deletions do not broadcast.
func (s *Store) RemoveRecipe(id string) {
	s.mu.Lock()
	s.state.Recipes = removeByID(s.state.Recipes, id, func(r Recipe) string { return r.ID })
	s.mu.Unlock()
}

// AddAccount creates a finance account. Local only.
func (s *Store) AddAccount(a FinanceAccount) FinanceAccount {
	s.mu.Lock()
	a.ID = s.newID()
	s.state.Accounts = append(s.state.Accounts, a)
	s.logActivityLocked("budget", "Account added: "+a.Name)
	s.mu.Unlock()
	return a
}

// AddTransaction posts a transaction, newest first. Local only.
func (s *Store) AddTransaction(t FinanceTransaction) FinanceTransaction {
	s.mu.Lock()
	t.ID = s.newID()
	s.state.Transactions = append([]FinanceTransaction{t}, s.state.Transactions...)
	s.logActivityLocked("budget", "Transaction: "+string(t.Type)+" "+formatAmount(t.Amount))
	s.mu.Unlock()
	return t
}

// RemoveTransaction deletes a transaction. Deletions do not broadcast.
func (s *Store) RemoveTransaction(id string) {
	s.mu.Lock()
	s.state.Transactions = removeByID(s.state.Transactions, id, func(t FinanceTransaction) string { return t.ID })
	s.mu.Unlock()
}

// AddRecurringBill registers a monthly bill. Local only.
func (s *Store) AddRecurringBill(b RecurringBill) RecurringBill {
	s.mu.Lock()
	b.ID = s.newID()
	s.state.RecurringBills = append(s.state.RecurringBills, b)
	s.mu.Unlock()
	return b
}

// ToggleRecurringActive flips a bill's active flag. Local only.
func (s *Store) ToggleRecurringActive(id string) {
	s.mu.Lock()
	for i := range s.state.RecurringBills {
		if s.state.RecurringBills[i].ID == id {
			s.state.RecurringBills[i].Active = !s.state.RecurringBills[i].Active
			break
		}
	}
	s.mu.Unlock()
}

// AddAnnouncement posts a notice and broadcasts it.
func (s *Store) AddAnnouncement(text string, urgent bool) Announcement {
	s.mu.Lock()
	a := Announcement{ID: s.newID(), Text: text, Urgent: urgent, CreatedAt: s.nowISO()}
	s.state.Announcements = append(s.state.Announcements, a)
	s.mu.Unlock()
	s.publish(KindAnnouncementAdd, a)
	return a
}

// AddDocument records uploaded document metadata, newest first, and
// broadcasts it.
func (s *Store) AddDocument(d DocumentItem) DocumentItem {
	s.mu.Lock()
	d.ID = s.newID()
	d.CreatedAt = s.nowISO()
	s.state.Documents = append([]DocumentItem{d}, s.state.Documents...)
	s.logActivityLocked("list", "Document uploaded: "+d.Name)
	s.mu.Unlock()
	s.publish(KindDocumentAdd, d)
	return d
}

// AddPhoto records uploaded photo metadata, newest first, and broadcasts it.
func (s *Store) AddPhoto(p PhotoItem) PhotoItem {
	s.mu.Lock()
	p.ID = s.newID()
	p.CreatedAt = s.nowISO()
	s.state.Photos = append([]PhotoItem{p}, s.state.Photos...)
	s.logActivityLocked("list", "Photo uploaded: "+p.Name)
	s.mu.Unlock()
	s.publish(KindPhotoAdd, p)
	return p
}

// UpdatePhoto patches photo metadata. Local only.
func (s *Store) UpdatePhoto(id string, patch PhotoPatch) {
	s.mu.Lock()
	for i := range s.state.Photos {
		if s.state.Photos[i].ID == id {
			patch.apply(&s.state.Photos[i])
			break
		}
	}
	s.mu.Unlock()
}

// AddAlbum creates an album, newest first, and broadcasts it.
func (s *Store) AddAlbum(a Album) Album {
	s.mu.Lock()
	a.ID = s.newID()
	a.CreatedAt = s.nowISO()
	s.state.Albums = append([]Album{a}, s.state.Albums...)
	s.logActivityLocked("list", "Album created: "+a.Name)
	s.mu.Unlock()
	s.publish(KindAlbumAdd, a)
	return a
}

// UpdateAlbum patches an album and broadcasts the patch.
func (s *Store) UpdateAlbum(id string, patch AlbumPatch) {
	s.mu.Lock()
	for i := range s.state.Albums {
		if s.state.Albums[i].ID == id {
			patch.apply(&s.state.Albums[i])
			break
		}
	}
	s.mu.Unlock()
	s.publish(KindAlbumUpdate, AlbumUpdatePayload{ID: id, Patch: patch})
}

// AddMemory curates a memory, newest first, and broadcasts it.
func (s *Store) AddMemory(m MemoryItem) MemoryItem {
	s.mu.Lock()
	m.ID = s.newID()
	m.CreatedAt = s.nowISO()
	if m.PhotoIDs == nil {
		m.PhotoIDs = []string{}
	}
	s.state.Memories = append([]MemoryItem{m}, s.state.Memories...)
	s.logActivityLocked("list", "Memory created: "+m.Title)
	s.mu.Unlock()
	s.publish(KindMemoryAdd, m)
	return m
}

// UpdateMemory patches a memory and broadcasts the patch.
func (s *Store) UpdateMemory(id string, patch MemoryPatch) {
	s.mu.Lock()
	for i := range s.state.Memories {
		if s.state.Memories[i].ID == id {
			patch.apply(&s.state.Memories[i])
			break
		}
	}
	s.mu.Unlock()
	s.publish(KindMemoryUpdate, MemoryUpdatePayload{ID: id, Patch: patch})
}

// AddPoll creates a poll, newest first, and broadcasts it. The question and
// at least two options must be non-blank after trimming.
func (s *Store) AddPoll(question string, options []string) (Poll, bool) {
	question = strings.TrimSpace(question)
	opts := make([]string, 0, len(options))
	for _, o := range options {
		if t := strings.TrimSpace(o); t != "" {
			opts = append(opts, t)
		}
	}
	if question == "" || len(opts) < 2 {
		return Poll{}, false
	}
	s.mu.Lock()
	poll := Poll{ID: s.newID(), Question: question, CreatedAt: s.nowISO()}
	for _, o := range opts {
		poll.Options = append(poll.Options, PollOption{ID: s.newID(), Text: o, Votes: []string{}})
	}
	s.state.Polls = append([]Poll{poll}, s.state.Polls...)
	s.mu.Unlock()
	s.publish(KindPollAdd, poll)
	return poll, true
}

// VotePoll records the acting member's vote on an option (set union, so a
// repeat vote is a no-op) and broadcasts it. Votes on several options of
// one poll all stand.
func (s *Store) VotePoll(pollID, optionID string) {
	s.mu.Lock()
	memberID := s.currentMemberLocked()
	if memberID == "" {
		s.mu.Unlock()
		return
	}
	s.applyVoteLocked(pollID, optionID, memberID)
	s.mu.Unlock()
	s.publish(KindPollVote, PollVotePayload{PollID: pollID, OptionID: optionID, MemberID: memberID})
}

func (s *Store) applyVoteLocked(pollID, optionID, memberID string) {
	for i := range s.state.Polls {
		if s.state.Polls[i].ID != pollID {
			continue
		}
		for j := range s.state.Polls[i].Options {
			if s.state.Polls[i].Options[j].ID == optionID {
				s.state.Polls[i].Options[j].Votes = union(s.state.Polls[i].Options[j].Votes, memberID)
			}
		}
		return
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
