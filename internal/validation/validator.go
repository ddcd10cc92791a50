// Package validation checks untrusted Extractor output against the
// current inventory and household state. It is pure: it takes immutable
// snapshots, performs no I/O, and reports every failure as a value in the
// result rather than a Go error.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fridgetrack/internal/inventory"
	"fridgetrack/internal/models"
)

// OwnershipMode selects how remove actions are authorized.
type OwnershipMode string

const (
	// OwnershipShared treats the fridge as one common pool any member
	// may remove from.
	OwnershipShared OwnershipMode = "shared"
	// OwnershipPerMember checks removals against the acting member's own
	// ownership rows.
	OwnershipPerMember OwnershipMode = "per-member"
)

// Snapshot is the immutable household state a transcript is validated
// against. Validation never reads live state, so concurrent mutations
// cannot interleave with a running validation.
type Snapshot struct {
	Inventory    []models.InventoryEntry
	MembersItems []models.MemberItem
	Household    []models.HouseholdMember
}

// Options configures a validation run.
type Options struct {
	Mode OwnershipMode
	Now  func() time.Time
}

func (o Options) mode() OwnershipMode {
	if o.Mode == OwnershipPerMember {
		return OwnershipPerMember
	}
	return OwnershipShared
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ValidateTranscript validates a whole candidate batch. Structural
// failures (empty batch, unknown member) short-circuit with a single
// error; per-item failures accumulate so every problem is reported at
// once, and any of them makes the whole transcript unsuccessful with no
// data emitted.
func ValidateTranscript(batch models.CandidateBatch, memberID models.FlexID, snap Snapshot, opts Options) models.ValidationResult {
	errs := []models.ValidationError{}
	warnings := []string{}

	if len(batch.Items) == 0 {
		errs = append(errs, models.ValidationError{
			Check:   "Items presence",
			Message: "No valid items found in transcript. Please mention specific items with quantities.",
		})
		return models.ValidationResult{Status: models.StatusUnsuccessful, Errors: errs, Warnings: warnings}
	}

	// With no household list supplied any caller is valid and the member
	// id doubles as the display name.
	memberName := string(memberID)
	if len(snap.Household) > 0 {
		member, ok := findMember(snap.Household, memberID)
		if !ok {
			errs = append(errs, models.ValidationError{
				Check:   "Member validation",
				Message: fmt.Sprintf("Invalid member ID: %s", memberID),
			})
			return models.ValidationResult{Status: models.StatusUnsuccessful, Errors: errs, Warnings: warnings}
		}
		memberName = member.MemberName
	}

	validated := []models.ValidatedItem{}
	for i, candidate := range batch.Items {
		item, itemWarnings, itemErrs := validateItem(normalize(candidate), memberID, memberName, snap, opts)
		warnings = append(warnings, itemWarnings...)
		if len(itemErrs) > 0 {
			name := candidate.ItemName
			if name == "" {
				name = "Unknown item"
			}
			errs = append(errs, models.ValidationError{
				Check:   fmt.Sprintf("Item %d validation", i+1),
				Message: fmt.Sprintf("%s: %s", name, strings.Join(itemErrs, "; ")),
			})
			continue
		}
		validated = append(validated, item)
	}

	if len(errs) > 0 {
		return models.ValidationResult{Status: models.StatusUnsuccessful, Errors: errs, Warnings: warnings}
	}

	return models.ValidationResult{
		Status:      models.StatusSuccess,
		Description: fmt.Sprintf("Successfully validated %d item(s) for %s", len(validated), memberName),
		Data:        validated,
		Errors:      errs,
		Warnings:    warnings,
	}
}

// normalize centralizes the defaulting rules so the checks below always
// operate on a fully-defaulted record.
func normalize(c models.CandidateItem) models.CandidateItem {
	c.ItemName = strings.TrimSpace(c.ItemName)
	c.Unit = strings.TrimSpace(c.Unit)
	if c.Category == "" {
		c.Category = string(models.CategoryOther)
	} else {
		c.Category = string(models.NormalizeCategory(c.Category))
	}
	return c
}

// validateItem runs every applicable check on one candidate, accumulating
// sub-errors instead of short-circuiting so a single bad record reports
// all of its problems at once.
func validateItem(c models.CandidateItem, memberID models.FlexID, memberName string, snap Snapshot, opts Options) (models.ValidatedItem, []string, []string) {
	var (
		itemErrs []string
		warnings []string
		matched  *models.InventoryEntry
	)

	if c.Action != models.ActionAdd && c.Action != models.ActionRemove {
		itemErrs = append(itemErrs, fmt.Sprintf("Invalid or missing action. Expected %q or %q, got %q", models.ActionAdd, models.ActionRemove, c.Action))
	}

	if c.ItemName == "" {
		itemErrs = append(itemErrs, "Missing or invalid item name")
	} else if entry, ok := inventory.Match(c.ItemName, snap.Inventory); ok {
		matched = &entry
	} else if c.Action == models.ActionRemove {
		// An unmatched name on add just means a new item; on remove it is
		// a hard error.
		itemErrs = append(itemErrs, fmt.Sprintf("Item %q not found in inventory. Available items: %s",
			c.ItemName, strings.Join(inventory.Names(snap.Inventory), ", ")))
	}

	if c.Quantity <= 0 || math.IsNaN(c.Quantity) || math.IsInf(c.Quantity, 0) {
		itemErrs = append(itemErrs, fmt.Sprintf("Invalid quantity: %s. Must be a positive number.", formatQuantity(c.Quantity)))
	}

	if c.Unit == "" {
		c.Unit = "piece"
		warnings = append(warnings, fmt.Sprintf("No unit specified for %s, defaulting to %q", c.ItemName, "piece"))
	}

	if c.Action == models.ActionRemove && matched != nil && len(itemErrs) == 0 {
		itemErrs = append(itemErrs, checkSufficiency(c, *matched, memberID, memberName, snap, opts)...)
	}

	if len(itemErrs) > 0 {
		return models.ValidatedItem{}, warnings, itemErrs
	}

	out := models.ValidatedItem{
		Member:   memberID,
		Action:   c.Action,
		ItemName: c.ItemName,
		Quantity: c.Quantity,
		Unit:     c.Unit,
		Category: models.Category(c.Category),
	}
	if matched != nil {
		id := matched.ItemID
		out.Item = &id
	}
	if c.Action == models.ActionAdd && c.EstimatedExpiryDays != nil {
		out.Expiry = EstimateExpiry(opts.now(), *c.EstimatedExpiryDays)
		out.EstimatedExpiryDays = c.EstimatedExpiryDays
	}
	return out, warnings, nil
}

// checkSufficiency re-resolves a remove against the current quantity of
// the matched entry: the member's own rows in per-member mode, the shared
// pool otherwise.
func checkSufficiency(c models.CandidateItem, matched models.InventoryEntry, memberID models.FlexID, memberName string, snap Snapshot, opts Options) []string {
	if opts.mode() == OwnershipPerMember {
		for _, mi := range snap.MembersItems {
			if mi.ItemID == matched.ItemID && mi.MemberID == memberID {
				if mi.Quantity < c.Quantity {
					return []string{fmt.Sprintf("%s has only %s %s, but tried to remove %s",
						memberName, formatQuantity(mi.Quantity), c.ItemName, formatQuantity(c.Quantity))}
				}
				return nil
			}
		}
		return []string{fmt.Sprintf("%s does not own any %q", memberName, c.ItemName)}
	}

	if matched.Quantity == nil {
		return []string{fmt.Sprintf("Item %q not found in the shared fridge.", c.ItemName)}
	}
	if *matched.Quantity < c.Quantity {
		return []string{fmt.Sprintf("Not enough %s in the fridge. Only %s available.",
			c.ItemName, formatQuantity(*matched.Quantity))}
	}
	return nil
}

func findMember(household []models.HouseholdMember, id models.FlexID) (models.HouseholdMember, bool) {
	for _, m := range household {
		if m.MemberID == id {
			return m, true
		}
	}
	return models.HouseholdMember{}, false
}

// formatQuantity renders amounts the way the clients display them: no
// trailing zeros, no exponent for ordinary values.
func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
