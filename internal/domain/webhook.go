package domain

import "time"

// Webhook entry statuses.
const (
	WebhookStatusNew     = "new"
	WebhookStatusUpdated = "updated"
)

// WebhookPayload is the inbound notification body pushed by the upstream
// API when figures change.
type WebhookPayload struct {
	Data []WebhookEntry `json:"data"`
}

// WebhookEntry is one changed record together with its change kind.
type WebhookEntry struct {
	Status string `json:"status"`
	Data   Figure `json:"data"`
}

// FigureReference is a figure selector stored against a piece of content.
// ID may be the wildcard "_all", in which case the reference tracks every
// figure matching the provider, country and year scope. Year may be a
// literal year or one of the sentinels YearAny and YearCurrent.
type FigureReference struct {
	EntityID string `json:"entity_id"`
	Field    string `json:"field"`
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Country  string `json:"country"`
	Year     int    `json:"year"`

	Value     float64 `json:"value"`
	ValueText string  `json:"value_text,omitempty"`
	Unit      string  `json:"unit,omitempty"`
}

// WildcardFigureID marks a reference that displays all figures in scope.
const WildcardFigureID = "_all"

// Matches reports whether the reference's scope covers the given record.
// References with a concrete figure id only match that exact figure; the
// wildcard matches the provider, country and year selector, where the year
// sentinels match any record year.
func (r FigureReference) Matches(record Figure, includeByID bool) bool {
	if r.ID != WildcardFigureID {
		return includeByID && r.ID == record.ID
	}
	if r.Provider != record.Provider || r.Country != record.ISO3 {
		return false
	}
	return r.Year == YearAny || r.Year == YearCurrent || r.Year == record.Year
}

// FigureUpdatedEvent is published after a webhook batch has been reconciled.
type FigureUpdatedEvent struct {
	EventID   string    `json:"event_id"`
	Status    string    `json:"status"`
	FigureID  string    `json:"figure_id"`
	Provider  string    `json:"provider"`
	Country   string    `json:"country"`
	Year      int       `json:"year"`
	Entities  []string  `json:"entities"`
	CreatedAt time.Time `json:"created_at"`
}
