// Package catalog holds the in-memory course catalog and the
// search/filter/paginate pipeline that runs over it.
package catalog

import (
	"fmt"
	"strings"

	"campusportal/internal/model"
)

// PageSize is the fixed number of sections per result page.
const PageSize = 20

// Modality selects sections by delivery mode.
type Modality string

const (
	ModalityAny            Modality = ""
	ModalityVirtual        Modality = "virtual"
	ModalitySemipresencial Modality = "semipresencial"
)

// ParseModality accepts "", "virtual" and "semipresencial" (case-insensitive).
func ParseModality(raw string) (Modality, error) {
	switch m := Modality(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModalityAny, ModalityVirtual, ModalitySemipresencial:
		return m, nil
	default:
		return ModalityAny, fmt.Errorf("unknown modality %q", raw)
	}
}

// Campuses lists every campus a section can belong to, in display order.
var Campuses = []string{
	"Santo Domingo",
	"Santiago",
	"San Fco de Macorís",
	"Puerto Plata",
	"San Juan",
	"Barahona",
	"Mao",
	"Hato Mayor",
	"Higüey",
	"Bonao",
	"La Vega",
	"Baní",
	"Azua de Compostela",
	"Neyba",
	"Cotuí",
	"Nagua",
	"Dajabón",
}

// Filter is the set of active search inputs. Zero values disable a filter.
type Filter struct {
	Query    string
	Campus   string
	Modality Modality
}

// EmptyState tells the presentation layer which "no results" message to show.
type EmptyState string

const (
	EmptyNone            EmptyState = ""
	EmptyNoResultsCampus EmptyState = "no_results_campus"
	EmptyNoResults       EmptyState = "no_results"
)

// Result is one page of a search.
type Result struct {
	Sections     []model.Section
	Courses      []model.Course
	Page         int
	TotalPages   int
	TotalResults int
	Empty        EmptyState
}

type entry struct {
	section model.Section
	course  *model.Course
	// normalized professor, nrc, course name, course code; "" when missing
	fields [4]string
}

// Catalog is an immutable snapshot of courses and sections. It is safe for
// concurrent use.
type Catalog struct {
	courses []model.Course
	byID    map[string]*model.Course
	entries []entry
}

// New indexes courses by id once and precomputes the normalized search
// fields of every section. Section order is preserved.
func New(courses []model.Course, sections []model.Section) *Catalog {
	c := &Catalog{
		courses: append([]model.Course(nil), courses...),
		entries: make([]entry, 0, len(sections)),
	}
	c.byID = make(map[string]*model.Course, len(c.courses))
	for i := range c.courses {
		if _, dup := c.byID[c.courses[i].ID]; !dup {
			c.byID[c.courses[i].ID] = &c.courses[i]
		}
	}
	for _, s := range sections {
		e := entry{section: s, course: c.byID[s.CourseID]}
		e.fields[0] = Normalize(s.Professor)
		e.fields[1] = Normalize(s.NRC)
		if e.course != nil {
			e.fields[2] = Normalize(e.course.Name)
			e.fields[3] = Normalize(e.course.Code)
		}
		c.entries = append(c.entries, e)
	}
	return c
}

// Empty returns a catalog with no data, used when loading fails.
func Empty() *Catalog {
	return New(nil, nil)
}

// Len returns the number of loaded sections.
func (c *Catalog) Len() int { return len(c.entries) }

// Courses returns a copy of the loaded courses.
func (c *Catalog) Courses() []model.Course {
	return append([]model.Course(nil), c.courses...)
}

// CourseFor resolves a section's course; ok is false for dangling references.
func (c *Catalog) CourseFor(section model.Section) (model.Course, bool) {
	course, ok := c.byID[section.CourseID]
	if !ok {
		return model.Course{}, false
	}
	return *course, true
}

// Filter returns the sections that pass the text, campus and modality tests,
// in load order.
func (c *Catalog) Filter(f Filter) []model.Section {
	q := Normalize(f.Query)
	out := make([]model.Section, 0)
	for i := range c.entries {
		e := &c.entries[i]
		if matchesSearch(e, q) && MatchesCampus(e.section, f.Campus) && MatchesModality(e.section, f.Modality) {
			out = append(out, e.section)
		}
	}
	return out
}

// Search filters, clamps page into range and returns that page together with
// the courses its sections reference.
func (c *Catalog) Search(f Filter, page int) Result {
	filtered := c.Filter(f)
	pages := PageCount(len(filtered), PageSize)
	page = ClampPage(page, pages)
	sections := PageSlice(filtered, page, PageSize)

	res := Result{
		Sections:     sections,
		Courses:      c.coursesFor(sections),
		Page:         page,
		TotalPages:   pages,
		TotalResults: len(filtered),
	}
	if len(filtered) == 0 {
		if f.Campus != "" {
			res.Empty = EmptyNoResultsCampus
		} else {
			res.Empty = EmptyNoResults
		}
	}
	return res
}

func (c *Catalog) coursesFor(sections []model.Section) []model.Course {
	ids := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		ids[s.CourseID] = struct{}{}
	}
	out := make([]model.Course, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, course := range c.courses {
		if _, ok := ids[course.ID]; !ok {
			continue
		}
		if _, dup := seen[course.ID]; dup {
			continue
		}
		seen[course.ID] = struct{}{}
		out = append(out, course)
	}
	return out
}

func matchesSearch(e *entry, normalizedQuery string) bool {
	if normalizedQuery == "" {
		return true
	}
	for _, field := range e.fields {
		if field != "" && strings.Contains(field, normalizedQuery) {
			return true
		}
	}
	return false
}

// MatchesCampus is an exact comparison; an empty campus matches everything.
func MatchesCampus(s model.Section, campus string) bool {
	return campus == "" || s.Campus == campus
}

// MatchesModality applies the substring rules on the lowercased modalidad.
func MatchesModality(s model.Section, m Modality) bool {
	modalidad := strings.ToLower(s.Modalidad)
	switch m {
	case ModalityAny:
		return true
	case ModalityVirtual:
		return strings.Contains(modalidad, "online")
	case ModalitySemipresencial:
		return strings.Contains(modalidad, "semi") ||
			strings.Contains(modalidad, "semipresencial") ||
			strings.Contains(modalidad, "semi presencial")
	default:
		return false
	}
}
