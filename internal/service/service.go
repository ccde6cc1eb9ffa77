package service

import (
	"time"

	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/config"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/storage"
)

// ============================================
// Events
// ============================================

// Event names pushed to connected clients.
const (
	EventProgressUpdated = "progress_updated"
	EventEnrolled        = "enrolled"
	EventUnenrolled      = "unenrolled"
	EventSessionStarted  = "session_started"
	EventSessionUpdated  = "session_updated"
	EventMemberAdded     = "member_added"
	EventMemberRemoved   = "member_removed"
	EventMemberRole      = "member_role_updated"
	EventInvitation      = "invitation_created"
	EventCourseCreated   = "course_created"
	EventCourseDeleted   = "course_deleted"
)

// EventPublisher fans events out to live connections. Delivery is best effort.
type EventPublisher interface {
	PublishToUser(userID, event string, payload map[string]interface{})
	PublishToOrganization(organizationID, event string, payload map[string]interface{})
}

type noopPublisher struct{}

func (noopPublisher) PublishToUser(string, string, map[string]interface{})         {}
func (noopPublisher) PublishToOrganization(string, string, map[string]interface{}) {}

// ============================================
// Services Container
// ============================================

type Services struct {
	Authority    MembershipAuthority
	Auth         AuthService
	User         UserService
	Organization OrganizationService
	Member       MemberService
	Invitation   InvitationService
	Tag          TagService
	Course       CourseService
	Enrollment   EnrollmentService
	Session      TrainingSessionService
	Storage      StorageService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config *config.Config
	Repos  *repository.Repositories
	Blobs  storage.BlobStore
	Events EventPublisher

	// Login flow; both optional. Without them only bearer tokens work.
	Provider IdentityProvider
	Sessions auth.SessionStore
}

func NewServices(deps *ServiceDeps) *Services {
	events := deps.Events
	if events == nil {
		events = noopPublisher{}
	}
	cfg := deps.Config
	repos := deps.Repos
	sasTTL := time.Duration(cfg.SASExpiryMinutes) * time.Minute

	authority := NewMembershipAuthority(repos.UserRepo, repos.OrganizationRepo, cfg.RoleHierarchy)

	return &Services{
		Authority: authority,
		Auth: NewAuthService(
			deps.Provider,
			deps.Sessions,
			repos.UserRepo,
			time.Duration(cfg.SessionTTLHours)*time.Hour,
		),
		User: NewUserService(
			repos.UserRepo,
			repos.OrganizationRepo,
			repos.EnrollmentRepo,
			repos.TrainingSessionRepo,
		),
		Organization: NewOrganizationService(repos.OrganizationRepo, deps.Blobs),
		Member:       NewMemberService(repos.OrganizationRepo, repos.UserRepo, events),
		Invitation: NewInvitationService(
			repos.InvitationRepo,
			repos.OrganizationRepo,
			time.Duration(cfg.InvitationExpiryDays)*24*time.Hour,
			events,
		),
		Tag: NewTagService(repos.TagRepo),
		Course: NewCourseService(
			repos.CourseRepo,
			repos.OrganizationRepo,
			repos.TagRepo,
			deps.Blobs,
			cfg.BuildsContainer,
			sasTTL,
			events,
		),
		Enrollment: NewEnrollmentService(repos.EnrollmentRepo, repos.CourseRepo, events),
		Session:    NewTrainingSessionService(repos.TrainingSessionRepo, repos.CourseRepo, events),
		Storage: NewStorageService(
			deps.Blobs,
			repos.OrganizationRepo,
			authority,
			cfg.BuildsContainer,
			sasTTL,
		),
	}
}
