package classroom

import "time"

type Classroom struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	AcademicYear string    `json:"academicYear"`
	TeacherNames []string  `json:"teacherNames,omitempty"`
	StudentCount int       `json:"studentCount,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
