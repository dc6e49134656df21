package model

// Course represents a catalog course. Immutable after load.
type Course struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// Section represents one scheduled offering (NRC) of a course
type Section struct {
	NRC       string `db:"nrc" json:"nrc"`
	CourseID  string `db:"course_id" json:"courseId"`
	Professor string `db:"professor" json:"professor"`
	Campus    string `db:"campus" json:"campus"`
	Modalidad string `db:"modalidad" json:"modalidad"`
}
