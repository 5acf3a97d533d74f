package domain

// Presence is an OCHA regional or country office grouping several
// countries under one reporting scope.
type Presence struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
