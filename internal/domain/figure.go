package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Year sentinels used by figure selectors. A literal year is any other value.
const (
	YearAny     = 1
	YearCurrent = 2
)

// ValueType governs how figure values are combined and formatted.
type ValueType string

const (
	ValueTypeNumeric    ValueType = "numeric"
	ValueTypeAmount     ValueType = "amount"
	ValueTypePercentage ValueType = "percentage"
	ValueTypeList       ValueType = "list"
)

// Figure is one statistic scoped by provider, country and year, as returned
// by the upstream API. Numeric values land in Value; list values keep the
// raw comma-separated string in ValueText.
type Figure struct {
	ID          string    `json:"id"`
	FigureID    string    `json:"figure_id"`
	Provider    string    `json:"provider"`
	ISO3        string    `json:"iso3"`
	Year        int       `json:"year"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Value       float64   `json:"-"`
	ValueText   string    `json:"-"`
	ValueType   ValueType `json:"value_type"`
	Unit        string    `json:"unit,omitempty"`
	Updated     string    `json:"updated,omitempty"`
	Archived    bool      `json:"archived,omitempty"`

	HistoricValues []HistoricValue `json:"historic_values,omitempty"`
}

// HistoricValue is one raw time-series entry embedded in an upstream record.
// Dates arrive as strings and may be malformed; they are repaired during
// history assembly, not here.
type HistoricValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// figureAlias avoids recursing into the custom unmarshaller.
type figureAlias Figure

type figureWire struct {
	figureAlias
	RawValue json.RawMessage `json:"value"`
}

// UnmarshalJSON decodes the upstream value field, which is numeric for
// numeric, amount and percentage figures and a comma-separated string for
// list figures.
func (f *Figure) UnmarshalJSON(data []byte) error {
	var w figureWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*f = Figure(w.figureAlias)

	if len(w.RawValue) == 0 || string(w.RawValue) == "null" {
		return nil
	}
	if w.RawValue[0] == '"' {
		var s string
		if err := json.Unmarshal(w.RawValue, &s); err != nil {
			return err
		}
		f.ValueText = s
		return nil
	}
	var n float64
	if err := json.Unmarshal(w.RawValue, &n); err != nil {
		return fmt.Errorf("figure %s: %w", f.ID, err)
	}
	f.Value = n
	return nil
}

// MarshalJSON emits the value field in the same shape it arrived.
func (f Figure) MarshalJSON() ([]byte, error) {
	w := figureWire{figureAlias: figureAlias(f)}
	if f.ValueText != "" {
		raw, err := json.Marshal(f.ValueText)
		if err != nil {
			return nil, err
		}
		w.RawValue = raw
	} else {
		raw, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		w.RawValue = raw
	}
	return json.Marshal(w)
}

// DisplayValue returns the figure's value as a string regardless of type.
func (f Figure) DisplayValue() string {
	if f.ValueText != "" {
		return f.ValueText
	}
	return trimFloat(f.Value)
}

// EffectiveDate is the date used for recency and ordering: the updated
// timestamp when present, January 1st of the figure's year otherwise.
func (f Figure) EffectiveDate() time.Time {
	if f.Updated != "" {
		if d, err := ParseUpstreamDate(f.Updated); err == nil {
			return d
		}
	}
	return time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// ParseUpstreamDate parses the date portion of an upstream timestamp.
func ParseUpstreamDate(s string) (time.Time, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	return time.Parse("2006-01-02", s)
}

// RepairDate parses an upstream date string, repairing the known data
// quality issues: an unparseable day component is truncated to 01 and an
// out-of-range month is clamped to 12. The point is kept, not dropped.
func RepairDate(s string) (time.Time, error) {
	if d, err := ParseUpstreamDate(s); err == nil {
		return d, nil
	}

	if len(s) > 10 {
		s = s[:10]
	}
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("unrepairable date %q", s)
	}
	parts[2] = "01"
	var month int
	if _, err := fmt.Sscanf(parts[1], "%d", &month); err == nil && month > 12 {
		parts[1] = "12"
	}
	return time.Parse("2006-01-02", strings.Join(parts, "-"))
}

// ValuePoint is one normalized time-series point for a single figure,
// assembled from a record's own date and value or its embedded history.
// Updated carries the raw upstream timestamp when known; the analyzer
// prefers it for ordering.
type ValuePoint struct {
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Updated string    `json:"updated,omitempty"`
}

// GroupedFigure is a figure together with the value history accumulated
// from all records sharing its grouping key.
type GroupedFigure struct {
	Figure
	Values []ValuePoint `json:"values"`

	Trend     *Trend     `json:"trend,omitempty"`
	Sparkline *Sparkline `json:"sparkline,omitempty"`
}

// MarshalJSON merges the figure fields with the accumulated history.
// Without it the embedded figure's marshaller would be promoted and the
// history silently dropped.
func (g GroupedFigure) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(g.Figure)
	if err != nil {
		return nil, err
	}
	extra, err := json.Marshal(struct {
		Values    []ValuePoint `json:"values"`
		Trend     *Trend       `json:"trend,omitempty"`
		Sparkline *Sparkline   `json:"sparkline,omitempty"`
	}{g.Values, g.Trend, g.Sparkline})
	if err != nil {
		return nil, err
	}
	return mergeObjects(base, extra), nil
}

// AggregatedFigure is one logical figure merged from every raw record that
// shares its figure id, with provenance retained.
type AggregatedFigure struct {
	Figure
	SourceList []Figure `json:"figure_list"`
	CacheTags  []string `json:"cache_tags"`
}

// MarshalJSON merges the figure fields with provenance and cache tags.
func (a AggregatedFigure) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(a.Figure)
	if err != nil {
		return nil, err
	}
	extra, err := json.Marshal(struct {
		SourceList []Figure `json:"figure_list"`
		CacheTags  []string `json:"cache_tags"`
	}{a.SourceList, a.CacheTags})
	if err != nil {
		return nil, err
	}
	return mergeObjects(base, extra), nil
}

// AddCacheTags unions tags into the aggregate, preserving first-seen order.
func (a *AggregatedFigure) AddCacheTags(tags []string) {
	for _, tag := range tags {
		found := false
		for _, existing := range a.CacheTags {
			if existing == tag {
				found = true
				break
			}
		}
		if !found {
			a.CacheTags = append(a.CacheTags, tag)
		}
	}
}

// Trend is the percentage change between the two most recent points of a
// figure's history. The sign convention follows the upstream formula
// round((1 - first/second) * 100): a negative percentage is an increase.
type Trend struct {
	Percentage int       `json:"percentage"`
	Message    string    `json:"message"`
	Since      time.Time `json:"since"`
}

// Sparkline is the point list for a minimal 120x40 line chart, ordered
// newest first, each point rendered as "x,y" with two-decimal rounding.
type Sparkline struct {
	Points []string `json:"points"`
}

// RecencyStatus classifies how fresh a figure is.
type RecencyStatus string

const (
	StatusRecent   RecencyStatus = "recent"
	StatusStandard RecencyStatus = "standard"
)

// ClassifiedFigure is a grouped figure with its recency classification and
// human-readable update label attached. FormattedValue carries the
// rendered display value when the caller requested formatting.
type ClassifiedFigure struct {
	GroupedFigure
	Status         RecencyStatus `json:"status"`
	UpdatedLabel   string        `json:"updated_label"`
	FormattedValue string        `json:"formatted_value,omitempty"`
}

// MarshalJSON merges the grouped figure with the classification fields.
func (c ClassifiedFigure) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(c.GroupedFigure)
	if err != nil {
		return nil, err
	}
	extra, err := json.Marshal(struct {
		Status         RecencyStatus `json:"status"`
		UpdatedLabel   string        `json:"updated_label"`
		FormattedValue string        `json:"formatted_value,omitempty"`
	}{c.Status, c.UpdatedLabel, c.FormattedValue})
	if err != nil {
		return nil, err
	}
	return mergeObjects(base, extra), nil
}

// mergeObjects splices two marshalled JSON objects into one.
func mergeObjects(base, extra []byte) []byte {
	if len(extra) <= 2 {
		return base
	}
	if len(base) <= 2 {
		return extra
	}
	merged := make([]byte, 0, len(base)+len(extra))
	merged = append(merged, base[:len(base)-1]...)
	merged = append(merged, ',')
	merged = append(merged, extra[1:]...)
	return merged
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
