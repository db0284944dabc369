package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the wire format of a calendar date
const DateLayout = "2006-01-02"

// isoLayouts are the timestamp shapes found in source records, most specific first
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	DateLayout,
}

// Date is a calendar date without time of day
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate takes the calendar date of t in its own location
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO-8601 date or timestamp.
// ok is false when s is empty or does not parse.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), true
		}
	}
	return Date{}, false
}

// Time returns midnight UTC of the date
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is strictly earlier than other
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts any layout ParseDate understands
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseDate(s)
	if !ok {
		return ErrInvalidInput
	}
	*d = parsed
	return nil
}

// RetrievedDocument is the canonical shape of a search hit.
// SourceType and Score are always set; which other fields are present
// depends only on the source type.
type RetrievedDocument struct {
	SourceType SourceType `json:"sourceType" example:"Jira"`
	ID         string     `json:"id,omitempty" example:"PROJ-123"`
	URL        string     `json:"browseUrl,omitempty" example:"http://jira/browse/PROJ-123"`
	Title      string     `json:"title,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Creator    string     `json:"creator,omitempty"`
	Created    *Date      `json:"created,omitempty" swaggertype:"string" example:"2024-01-15"`
	Score      float64    `json:"score" example:"36.2"`
	Content    any        `json:"content,omitempty" swaggertype:"object"`

	// NetworkDrive only
	SizeBytes *int64 `json:"sizeBytes,omitempty"`
	// Unknown only
	PageNumber *int `json:"pageNumber,omitempty"`
}

// ContentText returns the content as text, or "" when it is not a string
func (d *RetrievedDocument) ContentText() string {
	if s, ok := d.Content.(string); ok {
		return s
	}
	return ""
}
