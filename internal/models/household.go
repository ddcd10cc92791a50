package models

import (
	"encoding/json"
	"time"
)

// FlexID is an identifier that decodes from either a JSON string or a
// JSON number. The mobile clients are inconsistent about which they send
// for member and item ids, so comparisons happen on the canonical string
// form.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// HouseholdMember is a person sharing the fridge.
type HouseholdMember struct {
	MemberID   FlexID `json:"member_id" gorm:"primary_key;column:member_id"`
	MemberName string `json:"member_name"`
}

// MemberItem is a per-member ownership row: how much of an item a given
// member holds. Consulted only when the ownership mode is per-member.
type MemberItem struct {
	ItemID   FlexID  `json:"item_id" gorm:"primary_key;column:item_id"`
	MemberID FlexID  `json:"member_id" gorm:"primary_key;column:member_id"`
	Quantity float64 `json:"quantity"`
}

// UsageLog records one applied inventory mutation.
type UsageLog struct {
	ID        uint      `json:"-" gorm:"primary_key;auto_increment"`
	MemberID  FlexID    `json:"memberId" gorm:"column:member_id"`
	Action    string    `json:"action"`
	ItemName  string    `json:"itemName"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
