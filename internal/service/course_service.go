package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/storage"
)

// ============================================
// Course Service
// ============================================

type ScenarioInput struct {
	Name      string
	BuildPath string
}

type ModuleInput struct {
	Title     string
	Scenarios []ScenarioInput
}

type CourseInput struct {
	Title       string
	Description *string
	BuildName   *string
	TagIDs      []string
	Modules     []ModuleInput
}

// CourseUpdate holds optional fields; nil leaves the value unchanged.
type CourseUpdate struct {
	Title       *string
	Description *string
	BuildName   *string
	TagIDs      *[]string
}

// ScenarioAccess is a scenario plus a temporary URL to its build.
type ScenarioAccess struct {
	Scenario  *repository.Scenario
	URL       string
	ExpiresAt time.Time
}

type CourseService interface {
	// List returns courses from the user's organizations, optionally only
	// from organizationID.
	List(ctx context.Context, userID, organizationID string) ([]*repository.Course, error)
	Create(ctx context.Context, organizationID string, input CourseInput) (*repository.Course, error)
	Get(ctx context.Context, courseID string) (*repository.Course, error)
	Update(ctx context.Context, courseID string, input CourseUpdate) (*repository.Course, error)
	Delete(ctx context.Context, courseID string) error
	// OrganizationOf returns the id of the organization owning courseID.
	OrganizationOf(ctx context.Context, courseID string) (string, error)
	Scenario(ctx context.Context, courseID, scenarioID string) (*ScenarioAccess, error)
}

type courseService struct {
	courseRepo      repository.CourseRepository
	orgRepo         repository.OrganizationRepository
	tagRepo         repository.TagRepository
	blobs           storage.BlobStore
	buildsContainer string
	urlTTL          time.Duration
	events          EventPublisher
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	orgRepo repository.OrganizationRepository,
	tagRepo repository.TagRepository,
	blobs storage.BlobStore,
	buildsContainer string,
	urlTTL time.Duration,
	events EventPublisher,
) CourseService {
	return &courseService{
		courseRepo:      courseRepo,
		orgRepo:         orgRepo,
		tagRepo:         tagRepo,
		blobs:           blobs,
		buildsContainer: buildsContainer,
		urlTTL:          urlTTL,
		events:          events,
	}
}

func (s *courseService) List(ctx context.Context, userID, organizationID string) ([]*repository.Course, error) {
	memberships, err := s.orgRepo.FindMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, Upstream("load memberships", err)
	}

	var orgIDs []string
	for _, m := range memberships {
		if organizationID == "" || m.OrganizationID == organizationID {
			orgIDs = append(orgIDs, m.OrganizationID)
		}
	}
	if organizationID != "" && len(orgIDs) == 0 {
		return nil, Forbidden("not a member")
	}
	if len(orgIDs) == 0 {
		return []*repository.Course{}, nil
	}

	courses, err := s.courseRepo.FindByOrganizations(ctx, orgIDs)
	if err != nil {
		return nil, Upstream("list courses", err)
	}
	return courses, nil
}

// checkTags rejects tag ids that do not belong to organizationID.
func (s *courseService) checkTags(ctx context.Context, organizationID string, tagIDs []string) error {
	for _, id := range tagIDs {
		if !validID(id) {
			return BadRequest("unknown tag %s", id)
		}
		tag, err := s.tagRepo.FindByID(ctx, organizationID, id)
		if err != nil {
			return Upstream("load tag", err)
		}
		if tag == nil {
			return BadRequest("unknown tag %s", id)
		}
	}
	return nil
}

func (s *courseService) Create(ctx context.Context, organizationID string, input CourseInput) (*repository.Course, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, BadRequest("title is required")
	}
	if err := s.checkTags(ctx, organizationID, input.TagIDs); err != nil {
		return nil, err
	}

	course := &repository.Course{
		OrganizationID: organizationID,
		Title:          title,
		Description:    input.Description,
		BuildName:      input.BuildName,
		TagIDs:         input.TagIDs,
	}
	if course.TagIDs == nil {
		course.TagIDs = []string{}
	}
	for i, m := range input.Modules {
		if strings.TrimSpace(m.Title) == "" {
			return nil, BadRequest("modules[%d].title is required", i)
		}
		module := &repository.CourseModule{Title: strings.TrimSpace(m.Title), Position: i + 1}
		for j, sc := range m.Scenarios {
			if sc.Name == "" || sc.BuildPath == "" {
				return nil, BadRequest("modules[%d].scenarios[%d] needs name and buildPath", i, j)
			}
			module.Scenarios = append(module.Scenarios, &repository.Scenario{Name: sc.Name, BuildPath: sc.BuildPath})
		}
		course.Modules = append(course.Modules, module)
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, Upstream("create course", err)
	}

	logs.Logger.Infof("[Course] Created %s (%s) in %s", course.Title, course.ID, organizationID)
	s.events.PublishToOrganization(organizationID, EventCourseCreated, map[string]interface{}{
		"courseId": course.ID,
		"title":    course.Title,
	})
	return course, nil
}

func (s *courseService) Get(ctx context.Context, courseID string) (*repository.Course, error) {
	if !validID(courseID) {
		return nil, NotFound("course")
	}
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, Upstream("load course", err)
	}
	if course == nil {
		return nil, NotFound("course")
	}
	return course, nil
}

func (s *courseService) Update(ctx context.Context, courseID string, input CourseUpdate) (*repository.Course, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, BadRequest("title must not be empty")
		}
		course.Title = title
	}
	if input.Description != nil {
		course.Description = input.Description
	}
	if input.BuildName != nil {
		course.BuildName = input.BuildName
	}
	if input.TagIDs != nil {
		if err := s.checkTags(ctx, course.OrganizationID, *input.TagIDs); err != nil {
			return nil, err
		}
		course.TagIDs = *input.TagIDs
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, Upstream("update course", err)
	}
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, courseID string) error {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if err := s.courseRepo.Delete(ctx, course.ID); err != nil {
		return Upstream("delete course", err)
	}
	logs.Logger.Infof("[Course] Deleted %s", course.ID)
	s.events.PublishToOrganization(course.OrganizationID, EventCourseDeleted, map[string]interface{}{
		"courseId": course.ID,
	})
	return nil
}

func (s *courseService) OrganizationOf(ctx context.Context, courseID string) (string, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return "", err
	}
	return course.OrganizationID, nil
}

func (s *courseService) Scenario(ctx context.Context, courseID, scenarioID string) (*ScenarioAccess, error) {
	if !validID(scenarioID) {
		return nil, NotFound("scenario")
	}
	scenario, err := s.courseRepo.FindScenario(ctx, courseID, scenarioID)
	if err != nil {
		return nil, Upstream("load scenario", err)
	}
	if scenario == nil {
		return nil, NotFound("scenario")
	}

	access := &ScenarioAccess{Scenario: scenario, ExpiresAt: time.Now().Add(s.urlTTL)}
	access.URL, err = s.blobs.ReadURL(ctx, s.buildsContainer, scenario.BuildPath, s.urlTTL)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NotFound("scenario build")
		}
		return nil, Upstream("sign build url", err)
	}
	return access, nil
}
