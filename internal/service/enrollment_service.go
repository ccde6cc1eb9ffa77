package service

import (
	"context"
	"slices"
	"strings"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
)

// ============================================
// Enrollment Service
// ============================================

type QuizResponseInput struct {
	QuestionID string
	Answer     string
	Correct    bool
}

type EnrollmentService interface {
	// Enroll is idempotent: a second call returns the existing enrollment
	// with created=false.
	Enroll(ctx context.Context, userID, courseID string) (*repository.Enrollment, bool, error)
	// Unenroll removes the enrollment together with its quiz responses.
	Unenroll(ctx context.Context, userID, courseID string) error
	Progress(ctx context.Context, userID, courseID string) (*repository.Enrollment, error)
	// SetModuleCompleted marks moduleID done or not done and recomputes the
	// percentage from the course's module count.
	SetModuleCompleted(ctx context.Context, userID, courseID, moduleID string, completed bool) (*repository.Enrollment, error)
	RecordQuizResponse(ctx context.Context, userID, courseID, scenarioID string, input QuizResponseInput) (*repository.QuizResponse, error)
}

type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	events         EventPublisher
}

func NewEnrollmentService(enrollmentRepo repository.EnrollmentRepository, courseRepo repository.CourseRepository, events EventPublisher) EnrollmentService {
	return &enrollmentService{enrollmentRepo: enrollmentRepo, courseRepo: courseRepo, events: events}
}

func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID string) (*repository.Enrollment, bool, error) {
	enrollment := &repository.Enrollment{UserID: userID, CourseID: courseID}
	created, err := s.enrollmentRepo.Enroll(ctx, enrollment)
	if err != nil {
		return nil, false, Upstream("enroll", err)
	}
	if created {
		logs.Logger.Infof("[Enrollment] %s enrolled in %s", userID, courseID)
		s.events.PublishToUser(userID, EventEnrolled, map[string]interface{}{"courseId": courseID})
	}
	return enrollment, created, nil
}

func (s *enrollmentService) Unenroll(ctx context.Context, userID, courseID string) error {
	removed, err := s.enrollmentRepo.Unenroll(ctx, userID, courseID)
	if err != nil {
		return Upstream("unenroll", err)
	}
	if !removed {
		return NotFound("enrollment")
	}
	logs.Logger.Infof("[Enrollment] %s unenrolled from %s", userID, courseID)
	s.events.PublishToUser(userID, EventUnenrolled, map[string]interface{}{"courseId": courseID})
	return nil
}

func (s *enrollmentService) Progress(ctx context.Context, userID, courseID string) (*repository.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.Find(ctx, userID, courseID)
	if err != nil {
		return nil, Upstream("load enrollment", err)
	}
	if enrollment == nil {
		return nil, NotFound("enrollment")
	}
	return enrollment, nil
}

// percentComplete rounds to the nearest whole percent.
func percentComplete(done, total int) int {
	if total == 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return (done*100 + total/2) / total
}

func (s *enrollmentService) SetModuleCompleted(ctx context.Context, userID, courseID, moduleID string, completed bool) (*repository.Enrollment, error) {
	if strings.TrimSpace(moduleID) == "" {
		return nil, BadRequest("moduleId is required")
	}

	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, Upstream("load course", err)
	}
	if course == nil {
		return nil, NotFound("course")
	}
	moduleIDs := make([]string, 0, len(course.Modules))
	for _, m := range course.Modules {
		moduleIDs = append(moduleIDs, m.ID)
	}
	if !slices.Contains(moduleIDs, moduleID) {
		return nil, NotFound("module")
	}

	// The enrollment row is locked from read to write.
	enrollment, err := s.enrollmentRepo.UpdateProgress(ctx, userID, courseID, func(e *repository.Enrollment) {
		// Drop entries for modules that no longer exist before counting.
		done := make([]string, 0, len(e.CompletedModules)+1)
		for _, id := range e.CompletedModules {
			if id != moduleID && slices.Contains(moduleIDs, id) {
				done = append(done, id)
			}
		}
		if completed {
			done = append(done, moduleID)
		}
		e.CompletedModules = done
		e.Progress = percentComplete(len(done), len(moduleIDs))
	})
	if err != nil {
		return nil, Upstream("update progress", err)
	}
	if enrollment == nil {
		return nil, NotFound("enrollment")
	}

	s.events.PublishToUser(userID, EventProgressUpdated, map[string]interface{}{
		"courseId": courseID,
		"progress": enrollment.Progress,
	})
	return enrollment, nil
}

func (s *enrollmentService) RecordQuizResponse(ctx context.Context, userID, courseID, scenarioID string, input QuizResponseInput) (*repository.QuizResponse, error) {
	if input.QuestionID == "" {
		return nil, BadRequest("questionId is required")
	}
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

	enrollment, err := s.Progress(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	response := &repository.QuizResponse{
		EnrollmentID: enrollment.ID,
		ScenarioID:   scenario.ID,
		QuestionID:   input.QuestionID,
		Answer:       input.Answer,
		Correct:      input.Correct,
	}
	if err := s.enrollmentRepo.AddQuizResponse(ctx, response); err != nil {
		return nil, Upstream("record quiz response", err)
	}
	return response, nil
}
