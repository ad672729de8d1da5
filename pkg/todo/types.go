package todo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item represents a single checkable entry in a todo list.
// Items carry a completion audit trail: who ticked the item and when.
// An item's position is not stored here - it is the item's 1-based index
// in the parent List.Items slice, dense by construction.
type Item struct {
	ID          string     `json:"id"`                     // UUID - unique identifier for this item
	Text        string     `json:"text"`                   // Free-form content, never empty
	Completed   bool       `json:"completed"`              // Whether the item has been ticked off
	CreatedBy   string     `json:"created_by"`             // User ID of whoever added the item
	CreatedAt   time.Time  `json:"created_at"`             // When the item was added
	CompletedBy string     `json:"completed_by,omitempty"` // User ID of whoever ticked the item (empty when not completed)
	CompletedAt *time.Time `json:"completed_at,omitempty"` // When the item was ticked (nil when not completed)
}

// List represents a named, ordered collection of items owned by a creator
// within one guild. Names are unique per guild, compared case-insensitively.
type List struct {
	ID        string    `json:"id"`         // UUID - unique identifier, never changes
	GuildID   string    `json:"guild_id"`   // Partition key - the guild this list belongs to
	Name      string    `json:"name"`       // Human-readable name, unique within the guild (case-insensitive)
	CreatedBy string    `json:"created_by"` // User ID of the creator; authorizes deletion
	CreatedAt time.Time `json:"created_at"` // When the list was created
	Items     []Item    `json:"items"`      // Ordered items, insertion order preserved
}

// Snapshot is the full persisted state: guild ID to that guild's lists.
// It is the unit of load/save for both storage backends and the shape of
// the store's in-memory state.
type Snapshot map[string][]*List

// Summary is a read-only digest of a list for display purposes.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Items     int       `json:"items"`
	Completed int       `json:"completed"`
}

// NewList creates a list with a fresh UUID and creation timestamp.
func NewList(guildID, name, createdBy string) *List {
	return &List{
		ID:        uuid.New().String(),
		GuildID:   guildID,
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		Items:     []Item{},
	}
}

// NewItem creates an item with a fresh UUID and creation timestamp.
func NewItem(text, createdBy string) Item {
	return Item{
		ID:        uuid.New().String(),
		Text:      text,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
}

// NameEqual reports whether two list names refer to the same list.
// Name uniqueness within a guild is case-insensitive.
func NameEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Validate checks if the Item has valid field values.
func (i *Item) Validate() error {
	if !isValidUUID(i.ID) {
		return fmt.Errorf("invalid item ID: not a valid UUID")
	}

	if strings.TrimSpace(i.Text) == "" {
		return fmt.Errorf("item text cannot be empty")
	}

	if i.CreatedBy == "" {
		return fmt.Errorf("item created_by cannot be empty")
	}

	// Completion audit fields must be consistent with the flag
	if i.Completed && i.CompletedAt == nil {
		return fmt.Errorf("completed item missing completed_at")
	}
	if !i.Completed && (i.CompletedBy != "" || i.CompletedAt != nil) {
		return fmt.Errorf("incomplete item carries completion audit fields")
	}

	return nil
}

// Validate checks if the List has valid field values, including all items.
func (l *List) Validate() error {
	if !isValidUUID(l.ID) {
		return fmt.Errorf("invalid list ID: not a valid UUID")
	}

	if l.GuildID == "" {
		return fmt.Errorf("list guild_id cannot be empty")
	}

	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("list name cannot be empty")
	}

	if l.CreatedBy == "" {
		return fmt.Errorf("list created_by cannot be empty")
	}

	for idx := range l.Items {
		if err := l.Items[idx].Validate(); err != nil {
			return fmt.Errorf("invalid item at position %d: %w", idx+1, err)
		}
	}

	return nil
}

// Summary returns a display digest of the list.
func (l *List) Summary() Summary {
	completed := 0
	for i := range l.Items {
		if l.Items[i].Completed {
			completed++
		}
	}
	return Summary{
		ID:        l.ID,
		Name:      l.Name,
		CreatedBy: l.CreatedBy,
		CreatedAt: l.CreatedAt,
		Items:     len(l.Items),
		Completed: completed,
	}
}

// Clone returns a deep copy of the list. The store hands out clones so
// callers can never alias the authoritative in-memory state.
func (l *List) Clone() *List {
	cp := *l
	cp.Items = make([]Item, len(l.Items))
	copy(cp.Items, l.Items)
	return &cp
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for guildID, lists := range s {
		cloned := make([]*List, len(lists))
		for i, l := range lists {
			cloned[i] = l.Clone()
		}
		out[guildID] = cloned
	}
	return out
}

// Counts returns the total number of lists and items across all guilds.
func (s Snapshot) Counts() (lists, items int) {
	for _, guildLists := range s {
		lists += len(guildLists)
		for _, l := range guildLists {
			items += len(l.Items)
		}
	}
	return lists, items
}

// Validate checks every list in the snapshot and enforces per-guild name
// uniqueness. Backends validate snapshots on load as a second line of
// defense against hand-edited or corrupted state.
func (s Snapshot) Validate() error {
	for guildID, lists := range s {
		seen := make(map[string]string, len(lists)) // lowered name → list ID
		for _, l := range lists {
			if err := l.Validate(); err != nil {
				return fmt.Errorf("guild %s: %w", guildID, err)
			}
			if l.GuildID != guildID {
				return fmt.Errorf("guild %s: list %s carries mismatched guild_id %s", guildID, l.ID, l.GuildID)
			}
			lowered := strings.ToLower(l.Name)
			if otherID, exists := seen[lowered]; exists {
				return fmt.Errorf("guild %s: duplicate list name %q (lists %s and %s)", guildID, l.Name, otherID, l.ID)
			}
			seen[lowered] = l.ID
		}
	}
	return nil
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
