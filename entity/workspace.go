package entity

// Workspace is a named lakehouse endpoint.
type Workspace struct {
	Name   string
	Driver string
	DSN    string
}

// Facets holds the selectable values for the dashboard filters.
type Facets struct {
	Workspace string   `json:"workspace"`
	Clusters  []string `json:"clusters"`
	Users     []string `json:"users"`
}
