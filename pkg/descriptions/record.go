package descriptions

import (
	"encoding/json"
	"strings"
)

// Record is one product on the input stream. ID is opaque and echoed
// back verbatim on the output line: string or number, whatever the
// upstream export wrote.
type Record struct {
	ID              json.RawMessage `json:"id"`
	Handle          string          `json:"handle"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	LongDescription string          `json:"longDescription"`
	Brand           string          `json:"brand"`
	ProductType     string          `json:"productType"`
	Tags            []string        `json:"tags"`
	Metafields      []Metafield     `json:"metafields"`
}

// Metafield is a namespaced key/value attribute attached to a record.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type,omitempty"`
}

// Generated is one output line: the record's identity plus the two
// generated text fields.
type Generated struct {
	ID              json.RawMessage `json:"id"`
	Handle          string          `json:"handle"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	LongDescription string          `json:"longDescription"`
}

// Eligible reports whether a record still needs generated copy. A
// record is skipped only when both text fields already hold non-blank
// content; force selects every record regardless.
func Eligible(rec Record, force bool) bool {
	if force {
		return true
	}

	return strings.TrimSpace(rec.Description) == "" ||
		strings.TrimSpace(rec.LongDescription) == ""
}
