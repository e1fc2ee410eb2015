package models

// Child is one entry of the server's ownership list (GET /children).
type Child struct {
	// ID is the server-side child identifier cached by the client
	// as the current-child hint.
	ID int64 `json:"id"`

	// FirstName is the display name used across screens.
	FirstName string `json:"first_name"`

	// Age in years, as entered during onboarding.
	Age int `json:"age"`
}

// ChildList is the paginated ownership list. Only the first page is
// ever consulted; an account owning zero children has an empty Results.
type ChildList struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []Child `json:"results"`
}

// Contains reports whether the list includes a child with the given id.
func (l *ChildList) Contains(id int64) bool {
	for _, c := range l.Results {
		if c.ID == id {
			return true
		}
	}
	return false
}

// First returns the first owned child, or false when the list is empty.
func (l *ChildList) First() (Child, bool) {
	if len(l.Results) == 0 {
		return Child{}, false
	}
	return l.Results[0], true
}
