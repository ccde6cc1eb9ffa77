package handlers

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Organization *OrganizationHandler
	Member       *MemberHandler
	Invitation   *InvitationHandler
	Tag          *TagHandler
	Course       *CourseHandler
	Enrollment   *EnrollmentHandler
	Session      *SessionHandler
	Storage      *StorageHandler
}

// AuthOptions configures the login cookies.
type AuthOptions struct {
	FrontendURL  string
	SecureCookie bool
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services, opts AuthOptions) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth, opts: opts},
		User:         &UserHandler{userService: services.User},
		Organization: &OrganizationHandler{orgService: services.Organization},
		Member:       &MemberHandler{memberService: services.Member},
		Invitation:   &InvitationHandler{invitationService: services.Invitation},
		Tag:          &TagHandler{tagService: services.Tag},
		Course:       &CourseHandler{courseService: services.Course},
		Enrollment:   &EnrollmentHandler{enrollmentService: services.Enrollment},
		Session:      &SessionHandler{sessionService: services.Session},
		Storage:      &StorageHandler{storageService: services.Storage},
	}
}

func init() {
	// Report json field names in validation errors.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	}
}

// bind decodes the JSON body into obj and validates it. An empty body is
// validated as an empty object. The first failing field, in declaration
// order, is reported.
func bind(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindBodyWith(obj, binding.JSON)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return validationError(verrs[0])
	}
	return &service.Error{Kind: service.KindBadRequest, Message: "invalid JSON body", Details: err.Error()}
}

func validationError(fe validator.FieldError) *service.Error {
	field := fe.Field()
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		field = rest
	}
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "email":
		msg = fmt.Sprintf("%s must be a valid email", field)
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return service.BadRequest("%s", msg)
}

// fail hands err to the error boundary.
func fail(c *gin.Context, err error) {
	middleware.Abort(c, err)
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Picture:       u.Picture,
		ContainerName: u.ContainerName,
		CreatedAt:     u.CreatedAt,
	}
}

func toSessionResponse(s *auth.Session, u *repository.User) models.SessionResponse {
	resp := models.SessionResponse{
		Subject:   s.Identity.Subject,
		Email:     s.Identity.Email,
		Name:      s.Identity.Name,
		Picture:   s.Identity.Picture,
		ExpiresAt: s.ExpiresAt,
		Source:    s.Source,
	}
	if u != nil {
		user := toUserResponse(u)
		resp.User = &user
	}
	return resp
}

func toOrganizationResponse(o *repository.Organization) models.OrganizationResponse {
	return models.OrganizationResponse{
		ID:            o.ID,
		Name:          o.Name,
		Description:   o.Description,
		ContainerName: o.ContainerName,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toMemberResponse(m *repository.OrganizationMember) models.MemberResponse {
	resp := models.MemberResponse{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Role:           string(m.Role),
		JoinedAt:       m.JoinedAt,
	}
	if m.User != nil {
		user := toUserResponse(m.User)
		resp.User = &user
	}
	return resp
}

func toInvitationResponse(i *repository.Invitation, withToken bool) models.InvitationResponse {
	resp := models.InvitationResponse{
		ID:             i.ID,
		OrganizationID: i.OrganizationID,
		Email:          i.Email,
		Role:           string(i.Role),
		Status:         i.Status,
		InvitedBy:      i.InvitedBy,
		ExpiresAt:      i.ExpiresAt,
		CreatedAt:      i.CreatedAt,
	}
	if withToken {
		resp.Token = i.Token
	}
	return resp
}

func toTagResponse(t *repository.Tag) models.TagResponse {
	return models.TagResponse{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		Name:           t.Name,
		Color:          t.Color,
		CreatedAt:      t.CreatedAt,
	}
}

func toScenarioResponse(s *repository.Scenario) models.ScenarioResponse {
	return models.ScenarioResponse{
		ID:        s.ID,
		CourseID:  s.CourseID,
		ModuleID:  s.ModuleID,
		Name:      s.Name,
		BuildPath: s.BuildPath,
	}
}

func toCourseResponse(c *repository.Course) models.CourseResponse {
	resp := models.CourseResponse{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Title:          c.Title,
		Description:    c.Description,
		BuildName:      c.BuildName,
		TagIDs:         c.TagIDs,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if resp.TagIDs == nil {
		resp.TagIDs = []string{}
	}
	for _, m := range c.Modules {
		resp.Modules = append(resp.Modules, models.ModuleResponse{ID: m.ID, Title: m.Title, Position: m.Position})
	}
	for _, s := range c.Scenarios {
		resp.Scenarios = append(resp.Scenarios, toScenarioResponse(s))
	}
	return resp
}

func toEnrollmentResponse(e *repository.Enrollment) models.EnrollmentResponse {
	completed := e.CompletedModules
	if completed == nil {
		completed = []string{}
	}
	return models.EnrollmentResponse{
		ID:               e.ID,
		UserID:           e.UserID,
		CourseID:         e.CourseID,
		CompletedModules: completed,
		Progress:         e.Progress,
		EnrolledAt:       e.EnrolledAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func toUserCourseResponse(e *repository.EnrollmentWithCourse) models.UserCourseResponse {
	return models.UserCourseResponse{
		EnrollmentResponse: toEnrollmentResponse(&e.Enrollment),
		CourseTitle:        e.CourseTitle,
		OrganizationID:     e.OrganizationID,
		ModuleCount:        e.ModuleCount,
	}
}

func toQuizResponse(q *repository.QuizResponse) models.QuizResponseResponse {
	return models.QuizResponseResponse{
		ID:           q.ID,
		EnrollmentID: q.EnrollmentID,
		ScenarioID:   q.ScenarioID,
		QuestionID:   q.QuestionID,
		Answer:       q.Answer,
		Correct:      q.Correct,
		CreatedAt:    q.CreatedAt,
	}
}

func toSessionDTO(s *repository.TrainingSession) models.TrainingSessionResponse {
	return models.TrainingSessionResponse{
		ID:              s.ID,
		UserID:          s.UserID,
		CourseID:        s.CourseID,
		ScenarioID:      s.ScenarioID,
		Status:          s.Status,
		Score:           s.Score,
		DurationSeconds: s.DurationSeconds,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
}

func toStatsResponse(s *repository.UserStats) models.UserStatsResponse {
	return models.UserStatsResponse{
		UserID:            s.UserID,
		EnrolledCourses:   s.EnrolledCourses,
		CompletedCourses:  s.CompletedCourses,
		AverageProgress:   s.AverageProgress,
		Sessions:          s.Sessions,
		CompletedSessions: s.CompletedSessions,
		TrainingMinutes:   s.TrainingSeconds / 60,
		AverageScore:      s.AverageScore,
		QuizResponses:     s.QuizResponses,
		CorrectResponses:  s.CorrectResponses,
	}
}
