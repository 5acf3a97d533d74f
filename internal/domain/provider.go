package domain

// Provider is one logical upstream data source the caller can read.
type Provider struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// Option is a value/label pair from an upstream lookup endpoint.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
