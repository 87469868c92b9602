package models

import "time"

// CourseProgress is one row of a learner's dashboard.
type CourseProgress struct {
	CourseID          string    `json:"courseId"`
	Title             string    `json:"title"`
	Instructor        string    `json:"instructor"`
	Percent           int       `json:"percent"`
	CompletedLectures int       `json:"completedLectures"`
	TotalLectures     int       `json:"totalLectures"`
	EnrolledAt        time.Time `json:"enrolledAt"`
	Completed         bool      `json:"completed"`
}

type ProgressOverview struct {
	TotalEnrolled         int              `json:"totalEnrolled"`
	TotalCoursesCompleted int              `json:"totalCoursesCompleted"`
	TotalSubmissions      int              `json:"totalSubmissions"`
	AverageScore          float64          `json:"averageScore"`
	Courses               []CourseProgress `json:"courses"`
}
