package model

// Room is an immutable catalog entry.  ID is the opaque identifier used by
// the price lookup endpoint and Name is what operators see in the selector.
type Room struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}
