// Package inventory holds the household fridge state: the persistent
// item/member/usage-log store and the name matcher used during
// transcript validation.
package inventory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"

	"fridgetrack/internal/models"
)

// ErrItemNotFound is returned when an operation references an inventory
// item that does not exist.
var ErrItemNotFound = errors.New("item not found")

// ErrMemberNotFound is returned when an operation references an unknown
// household member.
var ErrMemberNotFound = errors.New("member not found")

// EventType labels a store change event.
type EventType string

const (
	EventItemAdded     EventType = "item_added"
	EventItemUpdated   EventType = "item_updated"
	EventItemRemoved   EventType = "item_removed"
	EventMemberAdded   EventType = "member_added"
	EventMemberRemoved EventType = "member_removed"
	EventLogAppended   EventType = "log_appended"
)

// Event is one store mutation, broadcast to subscribers.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Store is the injectable state container for the shared fridge. All
// mutations go through the store, are persisted via gorm, and are
// broadcast to subscribers, replacing the ad hoc reactive hooks of the
// original client with an explicit subscription mechanism.
type Store struct {
	mu  sync.Mutex
	db  *gorm.DB
	log zerolog.Logger
	now func() time.Time

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// Open opens (or creates) the SQLite-backed store at path and migrates
// the schema.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := gorm.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.InventoryItem{},
		&models.HouseholdMember{},
		&models.MemberItem{},
		&models.UsageLog{},
	).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate store schema: %w", err)
	}

	return &Store{
		db:   db,
		log:  logger,
		now:  time.Now,
		subs: make(map[int]chan Event),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Subscribe registers a listener for store change events. The returned
// cancel func must be called to release the subscription. Slow consumers
// miss events rather than blocking mutations.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 32)
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (s *Store) emit(events ...Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ev := range events {
		for _, ch := range s.subs {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Items returns all inventory items ordered by name.
func (s *Store) Items() ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := s.db.Order("name").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Members returns all household members.
func (s *Store) Members() ([]models.HouseholdMember, error) {
	var members []models.HouseholdMember
	if err := s.db.Order("member_id").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// MemberItems returns the per-member ownership rows.
func (s *Store) MemberItems() ([]models.MemberItem, error) {
	var rows []models.MemberItem
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Logs returns the usage log in chronological order.
func (s *Store) Logs() ([]models.UsageLog, error) {
	var logs []models.UsageLog
	if err := s.db.Order("id").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Snapshot returns the immutable view of the store that transcript
// validation runs against.
func (s *Store) Snapshot() ([]models.InventoryEntry, []models.MemberItem, []models.HouseholdMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.Items()
	if err != nil {
		return nil, nil, nil, err
	}
	ownership, err := s.MemberItems()
	if err != nil {
		return nil, nil, nil, err
	}
	members, err := s.Members()
	if err != nil {
		return nil, nil, nil, err
	}

	entries := make([]models.InventoryEntry, len(items))
	for i, it := range items {
		q := it.Quantity
		entries[i] = models.InventoryEntry{
			ItemID:   models.FlexID(it.ID),
			ItemName: it.Name,
			Quantity: &q,
			Unit:     it.Unit,
		}
	}
	return entries, ownership, members, nil
}

// AddOrMerge inserts items, merging by case-insensitive name: a matching
// existing item keeps its id, unit and metadata and gains the incoming
// quantity. Items arriving without an expiry get one from the shelf-life
// defaults.
func (s *Store) AddOrMerge(items ...models.InventoryItem) ([]models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		result []models.InventoryItem
		events []Event
	)
	for _, in := range items {
		if strings.TrimSpace(in.Name) == "" {
			return nil, errors.New("item requires a name")
		}
		if in.ID == "" {
			in.ID = uuid.NewString()
		}
		if in.Unit == "" {
			in.Unit = "pcs"
		}
		if in.Category == "" {
			in.Category = models.CategoryOther
		}
		if in.Expiry == nil {
			in.Expiry = s.defaultExpiry(in.Name)
		}

		var existing models.InventoryItem
		err := s.db.Where("LOWER(name) = ?", strings.ToLower(in.Name)).First(&existing).Error
		switch {
		case err == nil:
			existing.Quantity += in.Quantity
			if err := s.db.Save(&existing).Error; err != nil {
				return nil, err
			}
			result = append(result, existing)
			events = append(events, Event{EventItemUpdated, existing})
		case gorm.IsRecordNotFoundError(err):
			if err := s.db.Create(&in).Error; err != nil {
				return nil, err
			}
			result = append(result, in)
			events = append(events, Event{EventItemAdded, in})
		default:
			return nil, err
		}
	}

	s.emit(events...)
	return result, nil
}

// UpdateQuantity subtracts amount from an item's quantity and deletes the
// item when it reaches zero.
func (s *Store) UpdateQuantity(id string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item models.InventoryItem
	if err := s.db.Where("id = ?", id).First(&item).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return ErrItemNotFound
		}
		return err
	}

	item.Quantity -= amount
	if item.Quantity <= 0 {
		if err := s.db.Delete(&item).Error; err != nil {
			return err
		}
		s.emit(Event{EventItemRemoved, item})
		return nil
	}
	if err := s.db.Save(&item).Error; err != nil {
		return err
	}
	s.emit(Event{EventItemUpdated, item})
	return nil
}

// SetQuantity sets an item's absolute quantity, deleting it at zero.
func (s *Store) SetQuantity(id string, q float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item models.InventoryItem
	if err := s.db.Where("id = ?", id).First(&item).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return ErrItemNotFound
		}
		return err
	}

	if q <= 0 {
		if err := s.db.Delete(&item).Error; err != nil {
			return err
		}
		s.emit(Event{EventItemRemoved, item})
		return nil
	}
	item.Quantity = q
	if err := s.db.Save(&item).Error; err != nil {
		return err
	}
	s.emit(Event{EventItemUpdated, item})
	return nil
}

// Remove deletes an item by id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item models.InventoryItem
	if err := s.db.Where("id = ?", id).First(&item).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return ErrItemNotFound
		}
		return err
	}
	if err := s.db.Delete(&item).Error; err != nil {
		return err
	}
	s.emit(Event{EventItemRemoved, item})
	return nil
}

// SetClaimed claims or unclaims an item, by name, for a member display
// name.
func (s *Store) SetClaimed(name, userName string, claim bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item models.InventoryItem
	if err := s.db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&item).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return ErrItemNotFound
		}
		return err
	}

	has := false
	for _, u := range item.ClaimedBy {
		if u == userName {
			has = true
			break
		}
	}
	switch {
	case claim && !has:
		item.ClaimedBy = append(item.ClaimedBy, userName)
	case !claim && has:
		next := item.ClaimedBy[:0]
		for _, u := range item.ClaimedBy {
			if u != userName {
				next = append(next, u)
			}
		}
		item.ClaimedBy = next
	default:
		return nil
	}

	if err := s.db.Save(&item).Error; err != nil {
		return err
	}
	s.emit(Event{EventItemUpdated, item})
	return nil
}

// AddMember adds a household member, assigning the next numeric id.
func (s *Store) AddMember(name string) (models.HouseholdMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.Members()
	if err != nil {
		return models.HouseholdMember{}, err
	}
	next := 1
	for _, m := range members {
		if n, err := strconv.Atoi(string(m.MemberID)); err == nil && n >= next {
			next = n + 1
		}
	}

	member := models.HouseholdMember{
		MemberID:   models.FlexID(strconv.Itoa(next)),
		MemberName: name,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return models.HouseholdMember{}, err
	}
	s.emit(Event{EventMemberAdded, member})
	return member, nil
}

// RemoveMember deletes a household member and their ownership rows.
func (s *Store) RemoveMember(id models.FlexID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var member models.HouseholdMember
	if err := s.db.Where("member_id = ?", string(id)).First(&member).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return ErrMemberNotFound
		}
		return err
	}
	if err := s.db.Delete(&member).Error; err != nil {
		return err
	}
	if err := s.db.Where("member_id = ?", string(id)).Delete(&models.MemberItem{}).Error; err != nil {
		return err
	}
	s.emit(Event{EventMemberRemoved, member})
	return nil
}

// DedupeValidated collapses validated records sharing the same
// (itemName, action) key before they are applied, keeping the last-seen
// record for each key.
func DedupeValidated(items []models.ValidatedItem) []models.ValidatedItem {
	type key struct{ name, action string }
	idx := make(map[key]int, len(items))
	out := make([]models.ValidatedItem, 0, len(items))
	for _, it := range items {
		k := key{strings.ToLower(it.ItemName), it.Action}
		if i, ok := idx[k]; ok {
			out[i] = it
			continue
		}
		idx[k] = len(out)
		out = append(out, it)
	}
	return out
}

// ApplyValidated applies a validated transcript batch as one atomic
// operation: the batch is deduplicated, every mutation runs in a single
// transaction, and usage-log entries are appended per applied record. A
// failure rolls the whole batch back.
func (s *Store) ApplyValidated(items []models.ValidatedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items = DedupeValidated(items)

	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var events []Event
	for _, v := range items {
		var evs []Event
		var err error
		switch v.Action {
		case models.ActionAdd:
			evs, err = s.applyAdd(tx, v)
		case models.ActionRemove:
			evs, err = s.applyRemove(tx, v)
		default:
			err = fmt.Errorf("unsupported action %q", v.Action)
		}
		if err != nil {
			tx.Rollback()
			return err
		}
		events = append(events, evs...)

		entry := models.UsageLog{
			MemberID:  v.Member,
			Action:    v.Action,
			ItemName:  v.ItemName,
			Quantity:  v.Quantity,
			Unit:      v.Unit,
			Timestamp: s.now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			tx.Rollback()
			return err
		}
		events = append(events, Event{EventLogAppended, entry})
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.log.Debug().Int("records", len(items)).Msg("applied validated transcript batch")
	s.emit(events...)
	return nil
}

func (s *Store) applyAdd(tx *gorm.DB, v models.ValidatedItem) ([]Event, error) {
	var existing models.InventoryItem
	err := tx.Where("LOWER(name) = ?", strings.ToLower(v.ItemName)).First(&existing).Error
	switch {
	case err == nil:
		existing.Quantity += v.Quantity
		if err := tx.Save(&existing).Error; err != nil {
			return nil, err
		}
		if err := s.adjustOwnership(tx, models.FlexID(existing.ID), v.Member, v.Quantity); err != nil {
			return nil, err
		}
		return []Event{{EventItemUpdated, existing}}, nil
	case gorm.IsRecordNotFoundError(err):
		item := models.InventoryItem{
			ID:       uuid.NewString(),
			Name:     v.ItemName,
			Category: v.Category,
			Quantity: v.Quantity,
			Unit:     v.Unit,
		}
		if v.Expiry != "" {
			if t, perr := time.Parse(time.RFC3339, v.Expiry); perr == nil {
				item.Expiry = &t
			}
		}
		if item.Expiry == nil {
			item.Expiry = s.defaultExpiry(item.Name)
		}
		if err := tx.Create(&item).Error; err != nil {
			return nil, err
		}
		if err := s.adjustOwnership(tx, models.FlexID(item.ID), v.Member, v.Quantity); err != nil {
			return nil, err
		}
		return []Event{{EventItemAdded, item}}, nil
	default:
		return nil, err
	}
}

func (s *Store) applyRemove(tx *gorm.DB, v models.ValidatedItem) ([]Event, error) {
	var item models.InventoryItem
	var err error
	if v.Item != nil {
		err = tx.Where("id = ?", string(*v.Item)).First(&item).Error
	} else {
		err = tx.Where("LOWER(name) = ?", strings.ToLower(v.ItemName)).First(&item).Error
	}
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, v.ItemName)
		}
		return nil, err
	}

	if err := s.adjustOwnership(tx, models.FlexID(item.ID), v.Member, -v.Quantity); err != nil {
		return nil, err
	}

	item.Quantity -= v.Quantity
	if item.Quantity <= 0 {
		if err := tx.Delete(&item).Error; err != nil {
			return nil, err
		}
		return []Event{{EventItemRemoved, item}}, nil
	}
	if err := tx.Save(&item).Error; err != nil {
		return nil, err
	}
	return []Event{{EventItemUpdated, item}}, nil
}

// adjustOwnership keeps the per-member ownership rows in step with the
// shared pool so either ownership mode validates against fresh data.
func (s *Store) adjustOwnership(tx *gorm.DB, itemID, memberID models.FlexID, delta float64) error {
	if memberID == "" {
		return nil
	}

	var row models.MemberItem
	err := tx.Where("item_id = ? AND member_id = ?", string(itemID), string(memberID)).First(&row).Error
	switch {
	case err == nil:
		row.Quantity += delta
		if row.Quantity <= 0 {
			return tx.Delete(&row).Error
		}
		return tx.Save(&row).Error
	case gorm.IsRecordNotFoundError(err):
		if delta <= 0 {
			return nil
		}
		return tx.Create(&models.MemberItem{ItemID: itemID, MemberID: memberID, Quantity: delta}).Error
	default:
		return err
	}
}

// Shelf-life defaults, in days, applied when an item is added without an
// explicit expiry.
var defaultShelfLife = map[string]int{
	"milk":     7,
	"broccoli": 5,
	"chicken":  3,
	"apple":    14,
	"lettuce":  5,
	"bread":    5,
	"cheese":   10,
	"yogurt":   10,
	"meat":     3,
	"fish":     2,
	"eggs":     14,
}

const fallbackShelfLifeDays = 7

func (s *Store) defaultExpiry(name string) *time.Time {
	days, ok := defaultShelfLife[strings.ToLower(name)]
	if !ok {
		days = fallbackShelfLifeDays
	}
	t := s.now().AddDate(0, 0, days)
	return &t
}
