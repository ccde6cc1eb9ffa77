package repository

import (
	"time"

	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// ============================================
// Models / Entities
// ============================================

type User struct {
	ID            string
	AuthSubject   string
	Email         string
	Name          string
	Picture       *string
	ContainerName string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Organization struct {
	ID            string
	Name          string
	Description   *string
	ContainerName string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrganizationMember struct {
	ID             string
	OrganizationID string
	UserID         string
	Role           types.Role
	JoinedAt       time.Time
	User           *User
}

type Invitation struct {
	ID             string
	OrganizationID string
	Email          string
	Role           types.Role
	Token          string
	Status         string
	InvitedBy      *string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

type Tag struct {
	ID             string
	OrganizationID string
	Name           string
	Color          string
	CreatedAt      time.Time
}

type Course struct {
	ID             string
	OrganizationID string
	Title          string
	Description    *string
	BuildName      *string
	TagIDs         []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Modules        []*CourseModule
	Scenarios      []*Scenario
}

type CourseModule struct {
	ID       string
	CourseID string
	Title    string
	Position int
	// Scenarios is only read by CourseRepository.Create; loaded scenarios
	// live on Course.Scenarios.
	Scenarios []*Scenario
}

type Scenario struct {
	ID        string
	CourseID  string
	ModuleID  *string
	Name      string
	BuildPath string
	CreatedAt time.Time
}

type Enrollment struct {
	ID               string
	UserID           string
	CourseID         string
	CompletedModules []string
	Progress         int
	EnrolledAt       time.Time
	UpdatedAt        time.Time
}

// EnrollmentWithCourse is an enrollment joined with the course summary.
type EnrollmentWithCourse struct {
	Enrollment
	CourseTitle    string
	OrganizationID string
	ModuleCount    int
}

type QuizResponse struct {
	ID           string
	EnrollmentID string
	ScenarioID   string
	QuestionID   string
	Answer       string
	Correct      bool
	CreatedAt    time.Time
}

type TrainingSession struct {
	ID              string
	UserID          string
	CourseID        string
	ScenarioID      *string
	Status          string
	Score           *int
	DurationSeconds int
	StartedAt       time.Time
	EndedAt         *time.Time
}

// UserStats aggregates a user's training activity.
type UserStats struct {
	UserID            string
	EnrolledCourses   int
	CompletedCourses  int
	AverageProgress   float64
	Sessions          int
	CompletedSessions int
	TrainingSeconds   int
	AverageScore      *float64
	QuizResponses     int
	CorrectResponses  int
}
