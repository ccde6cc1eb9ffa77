package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// ============================================
// User Service
// ============================================

type UserService interface {
	// ResolveUser maps an identity to its user. With provision set, a missing
	// user is created atomically; otherwise a missing user is NotFound.
	ResolveUser(ctx context.Context, identity auth.Identity, provision bool) (*repository.User, error)
	Get(ctx context.Context, callerID, targetID string) (*repository.User, error)
	UpdateProfile(ctx context.Context, userID string, name, picture *string) (*repository.User, error)
	Delete(ctx context.Context, userID string) error
	Courses(ctx context.Context, callerID, targetID string) ([]*repository.EnrollmentWithCourse, error)
	Stats(ctx context.Context, callerID, targetID string) (*repository.UserStats, error)
}

type userService struct {
	userRepo       repository.UserRepository
	orgRepo        repository.OrganizationRepository
	enrollmentRepo repository.EnrollmentRepository
	sessionRepo    repository.TrainingSessionRepository
}

func NewUserService(
	userRepo repository.UserRepository,
	orgRepo repository.OrganizationRepository,
	enrollmentRepo repository.EnrollmentRepository,
	sessionRepo repository.TrainingSessionRepository,
) UserService {
	return &userService{
		userRepo:       userRepo,
		orgRepo:        orgRepo,
		enrollmentRepo: enrollmentRepo,
		sessionRepo:    sessionRepo,
	}
}

// containerName appends a random UUID to prefix. prefix must itself be a
// short lowercase name for the result to be a valid blob container name.
func containerName(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

func (s *userService) ResolveUser(ctx context.Context, identity auth.Identity, provision bool) (*repository.User, error) {
	if strings.TrimSpace(identity.Subject) == "" {
		return nil, Unauthenticated("session has no subject")
	}

	if !provision {
		user, err := s.userRepo.FindBySubject(ctx, identity.Subject)
		if err != nil {
			return nil, Upstream("load user", err)
		}
		if user == nil {
			return nil, NotFound("user")
		}
		return user, nil
	}

	user := &repository.User{
		AuthSubject:   identity.Subject,
		Email:         identity.Email,
		Name:          identity.Name,
		ContainerName: containerName("user"),
	}
	if user.Name == "" {
		user.Name = identity.Email
	}
	if identity.Picture != "" {
		picture := identity.Picture
		user.Picture = &picture
	}

	created, err := s.userRepo.Upsert(ctx, user)
	if err != nil {
		return nil, Upstream("provision user", err)
	}
	if created {
		logs.Logger.Infof("[User] Provisioned user %s for subject %s", user.ID, identity.Subject)
	}
	return user, nil
}

// canView allows a user to see themselves, and managers to see anyone in an
// organization they manage.
func (s *userService) canView(ctx context.Context, callerID, targetID string) error {
	if callerID == targetID {
		return nil
	}
	if !validID(targetID) {
		return NotFound("user")
	}
	ok, err := s.orgRepo.SharesOrganization(ctx, callerID, targetID, types.ManagerRoles)
	if err != nil {
		return Upstream("check shared organization", err)
	}
	if !ok {
		return Forbidden("cannot view this user")
	}
	return nil
}

func (s *userService) Get(ctx context.Context, callerID, targetID string) (*repository.User, error) {
	if err := s.canView(ctx, callerID, targetID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, Upstream("load user", err)
	}
	if user == nil {
		return nil, NotFound("user")
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, name, picture *string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, Upstream("load user", err)
	}
	if user == nil {
		return nil, NotFound("user")
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, BadRequest("name must not be empty")
		}
		user.Name = trimmed
	}
	if picture != nil {
		if *picture == "" {
			user.Picture = nil
		} else {
			user.Picture = picture
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, Upstream("update user", err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, userID string) error {
	memberships, err := s.orgRepo.FindMembershipsByUser(ctx, userID)
	if err != nil {
		return Upstream("load memberships", err)
	}
	for _, m := range memberships {
		if m.Role != types.RoleOwner {
			continue
		}
		owners, err := s.orgRepo.CountOwners(ctx, m.OrganizationID)
		if err != nil {
			return Upstream("count owners", err)
		}
		if owners <= 1 {
			return &Error{
				Kind:    KindConflict,
				Message: "cannot delete the last owner of an organization",
				Details: "transfer ownership or delete organization " + m.OrganizationID + " first",
			}
		}
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return Upstream("delete user", err)
	}
	logs.Logger.Infof("[User] Deleted user %s", userID)
	return nil
}

func (s *userService) Courses(ctx context.Context, callerID, targetID string) ([]*repository.EnrollmentWithCourse, error) {
	if err := s.canView(ctx, callerID, targetID); err != nil {
		return nil, err
	}
	enrollments, err := s.enrollmentRepo.FindByUser(ctx, targetID)
	if err != nil {
		return nil, Upstream("load enrollments", err)
	}
	return enrollments, nil
}

func (s *userService) Stats(ctx context.Context, callerID, targetID string) (*repository.UserStats, error) {
	if err := s.canView(ctx, callerID, targetID); err != nil {
		return nil, err
	}
	stats, err := s.sessionRepo.StatsForUser(ctx, targetID)
	if err != nil {
		return nil, Upstream("load stats", err)
	}
	return stats, nil
}
