package models

import "time"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewErrorResponse(message, details string) ErrorResponse {
	return ErrorResponse{Error: message, Details: details}
}

// ============================================
// Auth DTOs
// ============================================

type SessionResponse struct {
	Subject   string        `json:"sub"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Picture   string        `json:"picture,omitempty"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Source    string        `json:"source"`
	User      *UserResponse `json:"user,omitempty"`
}

type LogoutResponse struct {
	LogoutURL string `json:"logoutUrl,omitempty"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Picture       *string   `json:"picture,omitempty"`
	ContainerName string    `json:"containerName"`
	CreatedAt     time.Time `json:"createdAt"`
}

type UpdateUserRequest struct {
	Name    *string `json:"name,omitempty"`
	Picture *string `json:"picture,omitempty"`
}

type UserStatsResponse struct {
	UserID            string   `json:"userId"`
	EnrolledCourses   int      `json:"enrolledCourses"`
	CompletedCourses  int      `json:"completedCourses"`
	AverageProgress   float64  `json:"averageProgress"`
	Sessions          int      `json:"sessions"`
	CompletedSessions int      `json:"completedSessions"`
	TrainingMinutes   int      `json:"trainingMinutes"`
	AverageScore      *float64 `json:"averageScore"`
	QuizResponses     int      `json:"quizResponses"`
	CorrectResponses  int      `json:"correctResponses"`
}

// ============================================
// Organization DTOs
// ============================================

type CreateOrganizationRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

type UpdateOrganizationRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type OrganizationResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	ContainerName string    `json:"containerName"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Role          string    `json:"role,omitempty"`
}

type MemberResponse struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	UserID         string        `json:"userId"`
	Role           string        `json:"role"`
	JoinedAt       time.Time     `json:"joinedAt"`
	User           *UserResponse `json:"user,omitempty"`
}

type AddMemberRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required"`
}

type CreateInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

type InvitationResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Token          string    `json:"token,omitempty"`
	Status         string    `json:"status"`
	InvitedBy      *string   `json:"invitedBy,omitempty"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CreateTagRequest struct {
	Name  string `json:"name" binding:"required,max=50"`
	Color string `json:"color"`
}

type TagResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Color          string    `json:"color"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ============================================
// Course DTOs
// ============================================

type ScenarioRequest struct {
	Name      string `json:"name" binding:"required"`
	BuildPath string `json:"buildPath" binding:"required"`
}

type ModuleRequest struct {
	Title     string            `json:"title" binding:"required"`
	Scenarios []ScenarioRequest `json:"scenarios" binding:"omitempty,dive"`
}

type CreateCourseRequest struct {
	OrganizationID string          `json:"organizationId" binding:"required"`
	Title          string          `json:"title" binding:"required"`
	Description    *string         `json:"description,omitempty"`
	BuildName      *string         `json:"buildName,omitempty"`
	TagIDs         []string        `json:"tagIds"`
	Modules        []ModuleRequest `json:"modules" binding:"omitempty,dive"`
}

type UpdateCourseRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	BuildName   *string   `json:"buildName,omitempty"`
	TagIDs      *[]string `json:"tagIds,omitempty"`
}

type ModuleResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type ScenarioResponse struct {
	ID        string     `json:"id"`
	CourseID  string     `json:"courseId"`
	ModuleID  *string    `json:"moduleId,omitempty"`
	Name      string     `json:"name"`
	BuildPath string     `json:"buildPath"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type CourseResponse struct {
	ID             string             `json:"id"`
	OrganizationID string             `json:"organizationId"`
	Title          string             `json:"title"`
	Description    *string            `json:"description,omitempty"`
	BuildName      *string            `json:"buildName,omitempty"`
	TagIDs         []string           `json:"tagIds"`
	Modules        []ModuleResponse   `json:"modules,omitempty"`
	Scenarios      []ScenarioResponse `json:"scenarios,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

type EnrollmentResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	CourseID         string    `json:"courseId"`
	CompletedModules []string  `json:"completedModules"`
	Progress         int       `json:"progress"`
	EnrolledAt       time.Time `json:"enrolledAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type UserCourseResponse struct {
	EnrollmentResponse
	CourseTitle    string `json:"courseTitle"`
	OrganizationID string `json:"organizationId"`
	ModuleCount    int    `json:"moduleCount"`
}

type UpdateProgressRequest struct {
	ModuleID  string `json:"moduleId" binding:"required"`
	Completed *bool  `json:"completed" binding:"required"`
}

type QuizResponseRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Answer     string `json:"answer"`
	Correct    bool   `json:"correct"`
}

type QuizResponseResponse struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollmentId"`
	ScenarioID   string    `json:"scenarioId"`
	QuestionID   string    `json:"questionId"`
	Answer       string    `json:"answer"`
	Correct      bool      `json:"correct"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ============================================
// Training session DTOs
// ============================================

type StartSessionRequest struct {
	CourseID   string  `json:"courseId" binding:"required"`
	ScenarioID *string `json:"scenarioId,omitempty"`
}

type UpdateSessionRequest struct {
	SessionID       string  `json:"sessionId" binding:"required"`
	Status          *string `json:"status,omitempty"`
	Score           *int    `json:"score,omitempty"`
	DurationSeconds *int    `json:"durationSeconds,omitempty"`
}

type TrainingSessionResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	CourseID        string     `json:"courseId"`
	ScenarioID      *string    `json:"scenarioId,omitempty"`
	Status          string     `json:"status"`
	Score           *int       `json:"score,omitempty"`
	DurationSeconds int        `json:"durationSeconds"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// ============================================
// Storage DTOs
// ============================================

type CreateContainerRequest struct {
	Build string `json:"build"`
}

type CreateContainerResponse struct {
	Container string `json:"container"`
	Copied    int    `json:"copied"`
}
