package household

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hearthapp/hearth/internal/auth"
)

// DefaultAllowedNames is the fixed family roster eligible for accounts.
func DefaultAllowedNames() []string {
	return []string{"Sheldon", "Smith", "Mary (Mother)", "Samuel (Dad)", "Sidney"}
}

func seedMembers() []Member {
	names := DefaultAllowedNames()
	members := make([]Member, 0, len(names))
	for _, n := range names {
		members = append(members, Member{ID: uuid.NewString(), Name: n, Role: RoleForName(n)})
	}
	return members
}

// Seed builds the initial household: the family roster, three calendar
// categories, and an empty Groceries list.
func Seed() State {
	st := State{
		Members: seedMembers(),
		Categories: []EventCategory{
			{ID: uuid.NewString(), Name: "School", Color: "#06b6d4"},
			{ID: uuid.NewString(), Name: "Work", Color: "#f59e0b"},
			{ID: uuid.NewString(), Name: "Family", Color: "#10b981"},
		},
		Lists: []ShoppingList{
			{ID: uuid.NewString(), Name: "Groceries", Items: []ShoppingItem{}},
		},
	}
	return normalizeState(st)
}

// Snapshot returns a deep copy of the full state. Presence and typing maps
// are transient and excluded.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// Restore replaces the state with a migrated copy of the snapshot.
func (s *Store) Restore(st State) {
	normalized := normalizeState(st)
	s.mu.Lock()
	s.state = normalized
	s.mu.Unlock()
}

// EncodeSnapshot serializes a state snapshot for persistence.
func EncodeSnapshot(st State) ([]byte, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a persisted snapshot and applies migrations: nil
// collections become empty, emails normalize to lower case, and legacy
// password-hash strings convert to versioned credentials.
func DecodeSnapshot(data []byte) (State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return normalizeState(st), nil
}

// normalizeState migrates older snapshot shapes into the current one. An
// empty roster gets the seed members so a fresh or wiped snapshot still
// yields a usable household.
func normalizeState(st State) State {
	if len(st.Members) == 0 {
		st.Members = seedMembers()
	}
	for i := range st.Members {
		m := &st.Members[i]
		m.Email = strings.ToLower(strings.TrimSpace(m.Email))
		if m.Credential.IsZero() && m.LegacyPasswordHash != "" {
			if cred, ok := auth.ParseLegacy(m.LegacyPasswordHash); ok {
				m.Credential = cred
			}
		}
		m.LegacyPasswordHash = ""
	}
	if st.Categories == nil {
		st.Categories = []EventCategory{}
	}
	if st.Events == nil {
		st.Events = []CalendarEvent{}
	}
	if st.Tasks == nil {
		st.Tasks = []Task{}
	}
	if st.Lists == nil {
		st.Lists = []ShoppingList{}
	}
	for i := range st.Lists {
		if st.Lists[i].Items == nil {
			st.Lists[i].Items = []ShoppingItem{}
		}
	}
	if st.MealPlans == nil {
		st.MealPlans = []MealPlan{}
	}
	if st.Pantry == nil {
		st.Pantry = []PantryItem{}
	}
	if st.Recipes == nil {
		st.Recipes = []Recipe{}
	}
	if st.Accounts == nil {
		st.Accounts = []FinanceAccount{}
	}
	if st.Transactions == nil {
		st.Transactions = []FinanceTransaction{}
	}
	if st.RecurringBills == nil {
		st.RecurringBills = []RecurringBill{}
	}
	if st.Trips == nil {
		st.Trips = []Trip{}
	}
	if st.Itinerary == nil {
		st.Itinerary = []ItineraryItem{}
	}
	if st.Packing == nil {
		st.Packing = []PackingItem{}
	}
	if st.Budgets == nil {
		st.Budgets = []BudgetEntry{}
	}
	if st.Documents == nil {
		st.Documents = []DocumentItem{}
	}
	if st.Photos == nil {
		st.Photos = []PhotoItem{}
	}
	if st.Albums == nil {
		st.Albums = []Album{}
	}
	if st.Memories == nil {
		st.Memories = []MemoryItem{}
	}
	for i := range st.Memories {
		if st.Memories[i].PhotoIDs == nil {
			st.Memories[i].PhotoIDs = []string{}
		}
	}
	if st.Announcements == nil {
		st.Announcements = []Announcement{}
	}
	if st.Activity == nil {
		st.Activity = []ActivityItem{}
	}
	if st.ChatMessages == nil {
		st.ChatMessages = []ChatMessage{}
	}
	if st.Polls == nil {
		st.Polls = []Poll{}
	}
	for i := range st.Polls {
		for j := range st.Polls[i].Options {
			if st.Polls[i].Options[j].Votes == nil {
				st.Polls[i].Options[j].Votes = []string{}
			}
		}
	}
	st.Presence = make(map[string]int64)
	st.Typing = make(map[string]int64)
	return st
}

func cloneState(st State) State {
	out := st
	out.Members = append([]Member(nil), st.Members...)
	out.Categories = append([]EventCategory(nil), st.Categories...)
	out.Events = append([]CalendarEvent(nil), st.Events...)
	out.Tasks = append([]Task(nil), st.Tasks...)
	out.Lists = make([]ShoppingList, len(st.Lists))
	for i, l := range st.Lists {
		l.Items = append([]ShoppingItem(nil), l.Items...)
		out.Lists[i] = l
	}
	out.MealPlans = append([]MealPlan(nil), st.MealPlans...)
	out.Pantry = append([]PantryItem(nil), st.Pantry...)
	out.Recipes = make([]Recipe, len(st.Recipes))
	for i, r := range st.Recipes {
		r.Ingredients = append([]RecipeIngredient(nil), r.Ingredients...)
		out.Recipes[i] = r
	}
	out.Accounts = append([]FinanceAccount(nil), st.Accounts...)
	out.Transactions = append([]FinanceTransaction(nil), st.Transactions...)
	out.RecurringBills = append([]RecurringBill(nil), st.RecurringBills...)
	out.Trips = append([]Trip(nil), st.Trips...)
	out.Itinerary = append([]ItineraryItem(nil), st.Itinerary...)
	out.Packing = append([]PackingItem(nil), st.Packing...)
	out.Budgets = append([]BudgetEntry(nil), st.Budgets...)
	out.Documents = append([]DocumentItem(nil), st.Documents...)
	out.Photos = append([]PhotoItem(nil), st.Photos...)
	out.Albums = append([]Album(nil), st.Albums...)
	out.Memories = make([]MemoryItem, len(st.Memories))
	for i, m := range st.Memories {
		m.PhotoIDs = append([]string(nil), m.PhotoIDs...)
		out.Memories[i] = m
	}
	out.Announcements = append([]Announcement(nil), st.Announcements...)
	out.Activity = append([]ActivityItem(nil), st.Activity...)
	out.ChatMessages = make([]ChatMessage, len(st.ChatMessages))
	for i, m := range st.ChatMessages {
		m.DeliveredBy = append([]string(nil), m.DeliveredBy...)
		m.ReadBy = append([]string(nil), m.ReadBy...)
		out.ChatMessages[i] = m
	}
	out.Polls = make([]Poll, len(st.Polls))
	for i, p := range st.Polls {
		opts := make([]PollOption, len(p.Options))
		for j, o := range p.Options {
			o.Votes = append([]string(nil), o.Votes...)
			opts[j] = o
		}
		p.Options = opts
		out.Polls[i] = p
	}
	out.Presence = nil
	out.Typing = nil
	return out
}
