package workspace

import (
	"strings"
	"time"
	"unicode/utf8"
)

// PropertyType names a property's value kind.
type PropertyType string

// Property types.
const (
	TypeTitle    PropertyType = "title"
	TypeRichText PropertyType = "rich_text"
	TypeNumber   PropertyType = "number"
	TypeDate     PropertyType = "date"
	TypeSelect   PropertyType = "select"
	TypeStatus   PropertyType = "status"
	TypeURL      PropertyType = "url"
	TypeRelation PropertyType = "relation"
	TypeFiles    PropertyType = "files"
	TypeCheckbox PropertyType = "checkbox"
)

// MaxTextLength is the longest text value written to a title or rich_text property.
const MaxTextLength = 1024

// DateLayout is how date property bounds are written.
const DateLayout = "2006-01-02 15:04:05"

// Property is a typed property value. Only the field matching Type is meaningful.
type Property struct {
	Type     PropertyType `json:"type"`
	Text     string       `json:"text,omitempty"`
	Number   *float64     `json:"number,omitempty"`
	Date     *DateRange   `json:"date,omitempty"`
	Relation []string     `json:"relation,omitempty"`
	Files    []string     `json:"files,omitempty"`
	Checkbox bool         `json:"checkbox,omitempty"`
}

// DateRange is a date property value. Bounds are local wall-clock times in TimeZone.
type DateRange struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	TimeZone string `json:"time_zone,omitempty"`
}

// StartTime parses Start in the range's zone, falling back to loc.
func (d DateRange) StartTime(loc *time.Location) (time.Time, bool) {
	return parseBound(d.Start, d.TimeZone, loc)
}

func parseBound(s, zone string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if zone != "" {
		if l, err := time.LoadLocation(zone); err == nil {
			loc = l
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{time.RFC3339Nano, DateLayout, "2006-01-02T15:04:05", "2006-01-02"} {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Properties maps property names to values.
type Properties map[string]Property

// Text returns the text of a title, rich_text, url, select, or status property.
func (p Properties) Text(name string) string {
	return p[name].Text
}

// Number returns a number property and whether it is set.
func (p Properties) Number(name string) (float64, bool) {
	n := p[name].Number
	if n == nil {
		return 0, false
	}
	return *n, true
}

// Relation returns the related page ids.
func (p Properties) Relation(name string) []string {
	return p[name].Relation
}

// Checkbox returns a checkbox value and whether the property exists.
func (p Properties) Checkbox(name string) (bool, bool) {
	prop, ok := p[name]
	if !ok || prop.Type != TypeCheckbox {
		return false, false
	}
	return prop.Checkbox, true
}

// Title builds a title property.
func Title(s string) Property {
	return Property{Type: TypeTitle, Text: truncate(s)}
}

// RichText builds a rich_text property.
func RichText(s string) Property {
	return Property{Type: TypeRichText, Text: truncate(s)}
}

// Number builds a number property.
func Number(n float64) Property {
	return Property{Type: TypeNumber, Number: &n}
}

// Int builds a number property from an integer.
func Int(n int64) Property {
	return Number(float64(n))
}

// Date builds a date property. An empty end means a single point in time.
func Date(start, end time.Time, loc *time.Location) Property {
	r := &DateRange{Start: start.In(loc).Format(DateLayout), TimeZone: loc.String()}
	if !end.IsZero() {
		r.End = end.In(loc).Format(DateLayout)
	}
	return Property{Type: TypeDate, Date: r}
}

// Select builds a select property.
func Select(name string) Property {
	return Property{Type: TypeSelect, Text: name}
}

// Status builds a status property.
func Status(name string) Property {
	return Property{Type: TypeStatus, Text: name}
}

// URL builds a url property.
func URL(u string) Property {
	return Property{Type: TypeURL, Text: u}
}

// Relation builds a relation property.
func Relation(ids ...string) Property {
	return Property{Type: TypeRelation, Relation: ids}
}

// Files builds a files property of external urls.
func Files(urls ...string) Property {
	return Property{Type: TypeFiles, Files: urls}
}

// Checkbox builds a checkbox property.
func Checkbox(v bool) Property {
	return Property{Type: TypeCheckbox, Checkbox: v}
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxTextLength {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == MaxTextLength {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
