package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{"2024-01-15T10:30:00Z", "2024-01-15", true},
		{"2024-01-15T10:30:00.123+02:00", "2024-01-15", true},
		{"2024-01-15T23:30:00.000+0100", "2024-01-15", true},
		{"2024-01-15T10:30:00.123456", "2024-01-15", true},
		{"2024-01-15 10:30:00", "2024-01-15", true},
		{"  2024-01-15  ", "2024-01-15", true},
		{"", "", false},
		{"yesterday", "", false},
		{"15.01.2024", "", false},
		{"2024-13-45", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got.String() != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestDate_KeepsCalendarDayOfSourceZone(t *testing.T) {
	// 00:30 at +02:00 is still the previous day in UTC
	d, ok := ParseDate("2024-03-01T00:30:00+02:00")
	if !ok {
		t.Fatal("expected parse")
	}
	if d.String() != "2024-03-01" {
		t.Errorf("expected source calendar day, got %s", d)
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2024, time.February, 29, 18, 0, 0, 0, time.UTC))

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-02-29"` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != d {
		t.Errorf("expected %v, got %v", d, back)
	}

	if err := json.Unmarshal([]byte(`"not a date"`), &back); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestRetrievedDocument_JSONOmitsAbsentFields(t *testing.T) {
	doc := RetrievedDocument{SourceType: SourceTypeConfluence, ID: "42", Score: 1.5}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"created", "creator", "content", "sizeBytes", "pageNumber"} {
		if _, ok := fields[key]; ok {
			t.Errorf("expected %s to be omitted", key)
		}
	}
	if fields["sourceType"] != "Confluence" {
		t.Errorf("unexpected sourceType: %v", fields["sourceType"])
	}
	if fields["score"] != 1.5 {
		t.Errorf("unexpected score: %v", fields["score"])
	}
}

func TestRetrievedDocument_ContentText(t *testing.T) {
	text := RetrievedDocument{Content: "hello"}
	if text.ContentText() != "hello" {
		t.Errorf("expected hello, got %q", text.ContentText())
	}

	structured := RetrievedDocument{Content: map[string]any{"summary": "x"}}
	if structured.ContentText() != "" {
		t.Error("expected empty text for structured content")
	}
}
