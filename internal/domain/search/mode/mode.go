package mode

// Mode is the retrieval strategy of a query request.
type Mode string

// Retrieval mode constants.
const (
	// Paged fetches one page at offset page*per_page.
	Paged Mode = "paged"
	// ScrollOpen starts a cursor over the full match set.
	ScrollOpen Mode = "scroll_open"
	// ScrollContinue fetches the next batch of an open cursor.
	ScrollContinue Mode = "scroll_continue"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Paged || m == ScrollOpen || m == ScrollContinue
}

// IsScroll reports whether the mode uses a cursor.
func (m Mode) IsScroll() bool {
	return m == ScrollOpen || m == ScrollContinue
}
