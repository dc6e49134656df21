package dto

import (
	"campusportal/internal/catalog"
	"campusportal/internal/model"
)

// SectionDTO is a search hit with its course metadata, when the course exists
type SectionDTO struct {
	NRC        string `json:"nrc"`
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code,omitempty"`
	CourseName string `json:"course_name,omitempty"`
	Professor  string `json:"professor"`
	Campus     string `json:"campus"`
	Modalidad  string `json:"modalidad"`
}

// CatalogSearchResponseDTO is one page of catalog results
type CatalogSearchResponseDTO struct {
	Sections     []SectionDTO       `json:"sections"`
	Courses      []model.Course     `json:"courses"`
	Page         int                `json:"page"`
	TotalPages   int                `json:"total_pages"`
	TotalResults int                `json:"total_results"`
	Empty        string             `json:"empty,omitempty"`
	Pages        []catalog.PageLink `json:"pages,omitempty"`
}

// CatalogReloadResponseDTO reports how many sections are live after a reload
type CatalogReloadResponseDTO struct {
	Sections int `json:"sections"`
}

// CatalogImportDTO replaces the stored catalog
type CatalogImportDTO struct {
	Courses  []model.Course  `json:"courses" validate:"dive"`
	Sections []model.Section `json:"sections" validate:"required,min=1"`
}

// NewCatalogSearchResponse flattens a search result for the wire
func NewCatalogSearchResponse(c *catalog.Catalog, res catalog.Result) CatalogSearchResponseDTO {
	sections := make([]SectionDTO, 0, len(res.Sections))
	for _, s := range res.Sections {
		d := SectionDTO{
			NRC:       s.NRC,
			CourseID:  s.CourseID,
			Professor: s.Professor,
			Campus:    s.Campus,
			Modalidad: s.Modalidad,
		}
		if course, ok := c.CourseFor(s); ok {
			d.CourseCode = course.Code
			d.CourseName = course.Name
		}
		sections = append(sections, d)
	}
	courses := res.Courses
	if courses == nil {
		courses = []model.Course{}
	}
	return CatalogSearchResponseDTO{
		Sections:     sections,
		Courses:      courses,
		Page:         res.Page,
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
		Empty:        string(res.Empty),
		Pages:        catalog.PageNumbers(res.Page, res.TotalPages),
	}
}
