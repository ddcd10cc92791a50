package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// InventoryItem is one entry in the household fridge. An item whose
// quantity reaches zero is deleted from the store, never kept as a
// zero-quantity row.
type InventoryItem struct {
	ID        string     `json:"id" gorm:"primary_key"`
	Name      string     `json:"name"`
	Category  Category   `json:"category"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit"`
	Expiry    *time.Time `json:"expiry,omitempty"`
	Icon      string     `json:"icon,omitempty"`
	Recipes   StringList `json:"recipes,omitempty" gorm:"type:text"`
	ClaimedBy StringList `json:"claimedBy,omitempty" gorm:"type:text"`
}

// InventoryEntry is the snapshot shape used when validating a transcript.
// Quantity is optional: clients that only send names cannot have removals
// checked for sufficiency against the shared pool.
type InventoryEntry struct {
	ItemID   FlexID   `json:"item_id"`
	ItemName string   `json:"item_name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
}

// Category classifies an inventory item.
type Category string

const (
	CategoryDairy      Category = "Dairy"
	CategoryVegetables Category = "Vegetables"
	CategoryFruits     Category = "Fruits"
	CategoryMeats      Category = "Meats"
	CategoryOther      Category = "Other"
)

// NormalizeCategory maps free text onto the closed category set. Anything
// unrecognized becomes CategoryOther.
func NormalizeCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dairy":
		return CategoryDairy
	case "vegetables", "vegetable":
		return CategoryVegetables
	case "fruits", "fruit":
		return CategoryFruits
	case "meats", "meat":
		return CategoryMeats
	default:
		return CategoryOther
	}
}

// StringList stores a slice of strings as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}
