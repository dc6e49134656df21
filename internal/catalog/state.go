package catalog

import "fmt"

// View is the panel currently shown by the portal.
type View string

const (
	ViewHome        View = "home"
	ViewFAQ         View = "faq"
	ViewForum       View = "forum"
	ViewMarketplace View = "marketplace"
)

// ParseView validates a view name.
func ParseView(raw string) (View, error) {
	switch v := View(raw); v {
	case ViewHome, ViewFAQ, ViewForum, ViewMarketplace:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", raw)
	}
}

// State is the portal's application state. Every filter change resets the
// page to 1 and returns to the home view.
type State struct {
	View     View     `json:"view"`
	Query    string   `json:"query"`
	Campus   string   `json:"campus"`
	Modality Modality `json:"modality"`
	Page     int      `json:"page"`
}

func NewState() State {
	return State{View: ViewHome, Page: 1}
}

// Search sets the text query and campus together, as the search bar submits them.
func (s *State) Search(query, campus string) {
	s.Query = query
	s.Campus = campus
	s.filtersChanged()
}

func (s *State) SetCampus(campus string) {
	s.Campus = campus
	s.filtersChanged()
}

// ToggleModality selects m, or clears the modality when m is already selected.
func (s *State) ToggleModality(m Modality) {
	if s.Modality == m {
		s.Modality = ModalityAny
	} else {
		s.Modality = m
	}
	s.filtersChanged()
}

// SetPage moves to page; it is clamped against the result on the next search.
func (s *State) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.Page = page
}

// Show switches the active view without touching the filters.
func (s *State) Show(v View) {
	s.View = v
}

// Reset clears every filter and goes back home.
func (s *State) Reset() {
	*s = NewState()
}

// Filter returns the active catalog filter.
func (s State) Filter() Filter {
	return Filter{Query: s.Query, Campus: s.Campus, Modality: s.Modality}
}

// Apply runs the search for the current state and stores the clamped page.
func (s *State) Apply(c *Catalog) Result {
	res := c.Search(s.Filter(), s.Page)
	s.Page = res.Page
	return res
}

func (s *State) filtersChanged() {
	s.Page = 1
	s.View = ViewHome
}
