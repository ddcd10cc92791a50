package inventory

import (
	"strings"

	"fridgetrack/internal/models"
)

// Match resolves a free-text item name against the inventory snapshot.
// Precedence: exact case-insensitive equality, then an inventory name
// contained in the query, then the query contained in an inventory name.
// Within each tier the first entry in list order wins.
func Match(name string, entries []models.InventoryEntry) (models.InventoryEntry, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return models.InventoryEntry{}, false
	}

	for _, e := range entries {
		if strings.ToLower(e.ItemName) == query {
			return e, true
		}
	}
	for _, e := range entries {
		if strings.Contains(query, strings.ToLower(e.ItemName)) {
			return e, true
		}
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.ItemName), query) {
			return e, true
		}
	}
	return models.InventoryEntry{}, false
}

// Names returns the display names of all entries, used to report the
// available items when a removal cannot be resolved.
func Names(entries []models.InventoryEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.ItemName
	}
	return names
}
