package models

// Action values a candidate record may carry.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// CandidateItem is one record of the Extractor's best-effort parse of a
// transcript. It is untrusted: every field must be validated before it is
// allowed anywhere near the inventory store.
type CandidateItem struct {
	Action              string  `json:"action"`
	ItemName            string  `json:"itemName"`
	Quantity            float64 `json:"quantity"`
	Unit                string  `json:"unit,omitempty"`
	Category            string  `json:"category,omitempty"`
	EstimatedExpiryDays *int    `json:"estimatedExpiryDays,omitempty"`
}

// CandidateBatch is the full candidate list for one transcript.
type CandidateBatch struct {
	Items []CandidateItem `json:"items"`
}

// ValidatedItem is a candidate that passed every business-rule check.
// Item is the resolved inventory id; nil means the item is new and the
// consumer creates a fresh entry on apply.
type ValidatedItem struct {
	Member              FlexID   `json:"member"`
	Action              string   `json:"action"`
	Item                *FlexID  `json:"item"`
	ItemName            string   `json:"itemName"`
	Quantity            float64  `json:"quantity"`
	Unit                string   `json:"unit"`
	Category            Category `json:"category"`
	Expiry              string   `json:"expiry,omitempty"`
	EstimatedExpiryDays *int     `json:"estimatedExpiryDays,omitempty"`
}

// ValidationError is one failed check, named so the client can group
// failures by stage.
type ValidationError struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// Validation statuses.
const (
	StatusSuccess      = "success"
	StatusUnsuccessful = "unsuccessful"
)

// ValidationResult is the orchestrator's verdict on a whole transcript.
// Data and Description are present only on success; a transcript with any
// failed item yields no data at all.
type ValidationResult struct {
	Status      string            `json:"status"`
	Description string            `json:"description,omitempty"`
	Data        []ValidatedItem   `json:"data,omitempty"`
	Errors      []ValidationError `json:"errors"`
	Warnings    []string          `json:"warnings"`
}
