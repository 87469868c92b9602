package models

// CourseAnalytics aggregates the ledgers of every learner for one course.
type CourseAnalytics struct {
	CourseID        string  `json:"courseId"`
	Title           string  `json:"title"`
	Enrollments     int     `json:"enrollments"`
	Completed       int     `json:"completed"`
	AverageProgress float64 `json:"averageProgress"`
}

type InstructorOverview struct {
	Instructor string            `json:"instructor"`
	Courses    []CourseAnalytics `json:"courses"`
}

type PlatformAnalytics struct {
	TotalUsers         int          `json:"totalUsers"`
	UsersByRole        map[Role]int `json:"usersByRole"`
	CoursesCreated     int          `json:"coursesCreated"`
	AssignmentsCreated int          `json:"assignmentsCreated"`
	Submissions        int          `json:"submissions"`
	AverageProgress    float64      `json:"averageProgress"`
	AverageScore       float64      `json:"averageScore"`
}
