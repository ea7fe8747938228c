// Package household holds the shared family state: every entity collection,
// the mutation operations that feed the realtime channels, and the merge
// reducer that folds remote envelopes back in.
//
// The store is the single source of truth for the running client. Every
// mutator applies locally first, then broadcasts; every remote envelope is
// merged idempotently (id dedup for adds, last-write-wins for scalar
// updates, set union for accumulation fields).
package household

import "github.com/hearthapp/hearth/internal/auth"

// Credential is the versioned password record shared with the auth package.
type Credential = auth.Credential

// Role is a member's position in the household.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAdult    Role = "adult"
	RoleTeen     Role = "teen"
	RoleChild    Role = "child"
	RoleExtended Role = "extended"
)

// Member is an identity participating in the household. Credential is a
// versioned record; legacy "algo:hex" strings are migrated at snapshot load.
type Member struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Email      string     `json:"email,omitempty"`
	Credential Credential `json:"credential"`

	// LegacyPasswordHash carries the pre-migration string form only while
	// loading old snapshots; it is empty everywhere else.
	LegacyPasswordHash string `json:"passwordHash,omitempty"`
}

// EventCategory labels calendar events.
type EventCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CalendarEvent is a dated calendar entry.
type CalendarEvent struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"` // ISO date
	StartTime  string `json:"startTime,omitempty"`
	EndTime    string `json:"endTime,omitempty"`
	Location   string `json:"location,omitempty"`
	Notes      string `json:"notes,omitempty"`
	MemberID   string `json:"memberId,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
}

// Task is a checkable to-do.
type Task struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AssigneeID string `json:"assigneeId,omitempty"`
	DueDate    string `json:"dueDate,omitempty"`
	Completed  bool   `json:"completed"`
}

// ShoppingList groups shopping items, optionally tied to a store.
type ShoppingList struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Store string         `json:"store,omitempty"`
	Items []ShoppingItem `json:"items"`
}

// ShoppingItem is a line on a shopping list.
type ShoppingItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	Checked  bool   `json:"checked"`
}

// Trip is a planned journey; itinerary and packing items reference it.
type Trip struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Destination string `json:"destination,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
}

// ItineraryKind classifies an itinerary item.
type ItineraryKind string

const (
	ItineraryFlight   ItineraryKind = "flight"
	ItineraryTrain    ItineraryKind = "train"
	ItineraryActivity ItineraryKind = "activity"
	ItineraryHotel    ItineraryKind = "hotel"
	ItineraryCar      ItineraryKind = "car"
)

// ItineraryItem is one leg or booking on a trip.
type ItineraryItem struct {
	ID       string        `json:"id"`
	TripID   string        `json:"tripId"`
	Kind     ItineraryKind `json:"type"`
	Date     string        `json:"date"`
	Time     string        `json:"time,omitempty"`
	Title    string        `json:"title"`
	Location string        `json:"location,omitempty"`
	Notes    string        `json:"notes,omitempty"`
}

// PackingItem is something to pack for a trip.
type PackingItem struct {
	ID         string `json:"id"`
	TripID     string `json:"tripId"`
	AssigneeID string `json:"assigneeId,omitempty"`
	Name       string `json:"name"`
	Qty        int    `json:"qty,omitempty"`
	Packed     bool   `json:"packed"`
}

// BudgetEntry records spending, optionally against a trip.
type BudgetEntry struct {
	ID       string  `json:"id"`
	TripID   string  `json:"tripId,omitempty"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Date     string  `json:"date"`
}

// MealType slots a meal plan into the day.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealPlan is a planned meal on a date.
type MealPlan struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	MealType MealType `json:"mealType"`
	Title    string   `json:"title"`
	Notes    string   `json:"notes,omitempty"`
	Serves   int      `json:"serves,omitempty"`
}

// PantryItem is stock on hand.
type PantryItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Qty      int    `json:"qty,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Category string `json:"category,omitempty"`
}

// RecipeIngredient is one ingredient line of a recipe.
type RecipeIngredient struct {
	Name string `json:"name"`
	Qty  int    `json:"qty,omitempty"`
	Unit string `json:"unit,omitempty"`
}

// Recipe is a reusable dish description.
type Recipe struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions string             `json:"instructions,omitempty"`
}

// AccountType classifies a finance account.
type AccountType string

const (
	AccountCash   AccountType = "cash"
	AccountBank   AccountType = "bank"
	AccountCard   AccountType = "card"
	AccountWallet AccountType = "wallet"
)

// FinanceAccount is a money bucket transactions post against.
type FinanceAccount struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type AccountType `json:"type"`
}

// TransactionType classifies a finance transaction.
type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

// FinanceTransaction is a single posted movement.
type FinanceTransaction struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId"`
	Date      string          `json:"date"`
	Type      TransactionType `json:"type"`
	Amount    float64         `json:"amount"`
	Category  string          `json:"category,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// RecurringBill is a monthly obligation.
type RecurringBill struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	DayOfMonth int     `json:"dayOfMonth"`
	AccountID  string  `json:"accountId,omitempty"`
	Category   string  `json:"category,omitempty"`
	Active     bool    `json:"active"`
}

// Announcement is a broadcast household notice.
type Announcement struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Urgent    bool   `json:"urgent,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// ActivityItem is a line in the household activity feed.
type ActivityItem struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// DocumentItem is uploaded file metadata; blob storage is external.
type DocumentItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MimeType   string `json:"mimeType"`
	Size       int64  `json:"size"`
	UploadedBy string `json:"uploadedBy,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// PhotoItem is uploaded photo metadata.
type PhotoItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MimeType   string `json:"mimeType"`
	Size       int64  `json:"size"`
	UploadedBy string `json:"uploadedBy,omitempty"`
	CreatedAt  string `json:"createdAt"`
	AlbumID    string `json:"albumId,omitempty"`
	Title      string `json:"title,omitempty"`
}

// Album groups photos.
type Album struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	CoverPhotoID string `json:"coverPhotoId,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// MemoryItem is a curated moment referencing photos.
type MemoryItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date,omitempty"`
	PhotoIDs    []string `json:"photoIds"`
	CreatedAt   string   `json:"createdAt"`
}

// ChatMessage carries a household chat line plus its acknowledgement sets.
// DeliveredBy and ReadBy only ever grow, by set union.
type ChatMessage struct {
	ID          string   `json:"id"`
	SenderID    string   `json:"senderId"`
	Text        string   `json:"text"`
	CreatedAt   string   `json:"createdAt"`
	DeliveredBy []string `json:"deliveredBy,omitempty"`
	ReadBy      []string `json:"readBy,omitempty"`
}

// PollOption is one choice on a poll; Votes is a member-id set.
type PollOption struct {
	ID    string   `json:"id"`
	Text  string   `json:"text"`
	Votes []string `json:"votes"`
}

// Poll is a household question. A member may vote on several options; only
// repeat votes on the same option collapse.
type Poll struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	CreatedAt string       `json:"createdAt"`
}

// State is every collection the household tracks, in one snapshot-able
// value. Ordered slices preserve insertion order for feed-like collections.
type State struct {
	Members         []Member             `json:"members"`
	Categories      []EventCategory      `json:"categories"`
	Events          []CalendarEvent      `json:"events"`
	Tasks           []Task               `json:"tasks"`
	Lists           []ShoppingList       `json:"lists"`
	MealPlans       []MealPlan           `json:"mealPlans"`
	Pantry          []PantryItem         `json:"pantry"`
	Recipes         []Recipe             `json:"recipes"`
	Accounts        []FinanceAccount     `json:"accounts"`
	Transactions    []FinanceTransaction `json:"transactions"`
	RecurringBills  []RecurringBill      `json:"recurringBills"`
	Trips           []Trip               `json:"trips"`
	Itinerary       []ItineraryItem      `json:"itinerary"`
	Packing         []PackingItem        `json:"packing"`
	Budgets         []BudgetEntry        `json:"budgets"`
	Documents       []DocumentItem       `json:"documents"`
	Photos          []PhotoItem          `json:"photos"`
	Albums          []Album              `json:"albums"`
	Memories        []MemoryItem         `json:"memories"`
	Announcements   []Announcement       `json:"announcements"`
	Activity        []ActivityItem       `json:"activity"`
	ChatMessages    []ChatMessage        `json:"chatMessages"`
	Polls           []Poll               `json:"polls"`
	CurrentMemberID string               `json:"currentMemberId,omitempty"`

	// Presence maps member id to last heartbeat, epoch milliseconds.
	// An absent entry means offline. Typing maps member id to the last
	// keystroke timestamp (0 clears). Neither survives a snapshot.
	Presence map[string]int64 `json:"-"`
	Typing   map[string]int64 `json:"-"`
}
