package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/handlers"
	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/config"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
	"github.com/Marga-Ghale/ora-training-backend/internal/storage"
)

const testSecret = "router-test-secret"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	repos  *repository.Repositories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		SessionTTLHours:      24,
		SASExpiryMinutes:     60,
		InvitationExpiryDays: 7,
		BuildsContainer:      "builds",
	}
	repos := repository.NewMemoryRepositories()
	services := service.NewServices(&service.ServiceDeps{
		Config: cfg,
		Repos:  repos,
		Blobs:  storage.NewMemoryBlobStore(),
	})
	verifier, err := auth.NewTokenVerifier(testSecret, "", "")
	require.NoError(t, err)

	router := NewRouter(RouterDeps{
		Services: services,
		Handlers: handlers.NewHandlers(services, handlers.AuthOptions{}),
		Resolver: auth.NewResolver(verifier, nil),
	})
	return &testServer{t: t, router: router, repos: repos}
}

// token signs a bearer token for subject.
func (s *testServer) token(subject string) string {
	s.t.Helper()
	raw, err := auth.SignHS256(testSecret, auth.Identity{
		Subject: subject,
		Email:   subject + "@example.com",
		Name:    subject,
	}, "", "", time.Hour)
	require.NoError(s.t, err)
	return raw
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signIn provisions the user behind subject and returns its token and id.
func (s *testServer) signIn(subject string) (string, string) {
	s.t.Helper()
	token := s.token(subject)
	w := s.do(http.MethodGet, "/v1/users/me", token, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var me struct {
		ID string `json:"id"`
	}
	decode(s.t, w, &me)
	return token, me.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func TestOrganizationLifecycle(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.signIn("owner")
	memberToken, memberID := s.signIn("member")

	w := s.do(http.MethodPost, "/v1/organizations", ownerToken, map[string]string{"name": "North Plant"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var org struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	decode(t, w, &org)
	assert.Equal(t, "OWNER", org.Role)

	w = s.do(http.MethodGet, "/v1/organizations", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = s.do(http.MethodPost, "/v1/organizations/"+org.ID+"/members", ownerToken, map[string]string{"userId": memberID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/organizations/"+org.ID+"/members", ownerToken, map[string]string{"userId": memberID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodDelete, "/v1/organizations/"+org.ID, memberToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient role", errorMessage(t, w))

	w = s.do(http.MethodDelete, "/v1/organizations/"+org.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/organizations/"+org.ID, ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteOrganizationWithQuizResponses(t *testing.T) {
	s := newTestServer(t)
	ownerToken, ownerID := s.signIn("owner")

	w := s.do(http.MethodPost, "/v1/organizations", ownerToken, map[string]string{"name": "North Plant"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var org struct {
		ID string `json:"id"`
	}
	decode(t, w, &org)

	w = s.do(http.MethodPost, "/v1/courses", ownerToken, map[string]interface{}{
		"organizationId": org.ID,
		"title":          "Forklift Basics",
		"modules": []map[string]interface{}{
			{"title": "Loading", "scenarios": []map[string]string{
				{"name": "Pallet stack", "buildPath": "forklift/index.html"},
			}},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var course struct {
		ID        string `json:"id"`
		Scenarios []struct {
			ID string `json:"id"`
		} `json:"scenarios"`
	}
	decode(t, w, &course)
	require.Len(t, course.Scenarios, 1)

	w = s.do(http.MethodPost, "/v1/courses/"+course.ID+"/enroll", ownerToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/courses/"+course.ID+"/scenarios/"+course.Scenarios[0].ID, ownerToken, map[string]interface{}{
		"questionId": "q1",
		"answer":     "b",
		"correct":    true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	ctx := context.Background()
	enrollment, err := s.repos.EnrollmentRepo.Find(ctx, ownerID, course.ID)
	require.NoError(t, err)
	require.NotNil(t, enrollment)

	w = s.do(http.MethodDelete, "/v1/organizations/"+org.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/v1/organizations", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	decode(t, w, &list)
	assert.Empty(t, list)

	left, err := s.repos.EnrollmentRepo.Find(ctx, ownerID, course.ID)
	require.NoError(t, err)
	assert.Nil(t, left)
	count, err := s.repos.EnrollmentRepo.CountQuizResponses(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGuardsRejectBeforeMutation(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.signIn("owner")
	outsiderToken, _ := s.signIn("outsider")

	w := s.do(http.MethodPost, "/v1/organizations", ownerToken, map[string]string{"name": "Plant"})
	require.Equal(t, http.StatusCreated, w.Code)
	var org struct {
		ID string `json:"id"`
	}
	decode(t, w, &org)

	w = s.do(http.MethodPost, "/v1/organizations/"+org.ID+"/tags", "", map[string]string{"name": "Cranes"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/v1/organizations/"+org.ID+"/tags", outsiderToken, map[string]string{"name": "Cranes"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not a member", errorMessage(t, w))

	tags, err := s.repos.TagRepo.FindByOrganization(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	w = s.do(http.MethodPost, "/v1/organizations", ownerToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name is required", errorMessage(t, w))

	w = s.do(http.MethodGet, "/v1/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnknownUserIsNotProvisionedByOrgRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/v1/organizations", s.token("brand-new"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user not found", errorMessage(t, w))

	user, err := s.repos.UserRepo.FindBySubject(context.Background(), "brand-new")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCourseProgressFlow(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.signIn("owner")

	w := s.do(http.MethodPost, "/v1/organizations", ownerToken, map[string]string{"name": "Plant"})
	require.Equal(t, http.StatusCreated, w.Code)
	var org struct {
		ID string `json:"id"`
	}
	decode(t, w, &org)

	w = s.do(http.MethodPost, "/v1/courses", ownerToken, map[string]interface{}{
		"organizationId": org.ID,
		"title":          "Overhead Crane",
		"modules": []map[string]interface{}{
			{"title": "Rigging"},
			{"title": "Lifting"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var course struct {
		ID      string `json:"id"`
		Modules []struct {
			ID string `json:"id"`
		} `json:"modules"`
	}
	decode(t, w, &course)
	require.Len(t, course.Modules, 2)

	w = s.do(http.MethodPost, "/v1/courses/"+course.ID+"/enroll", ownerToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/v1/courses/"+course.ID+"/enroll", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, "/v1/courses/"+course.ID+"/progress", ownerToken, map[string]interface{}{
		"moduleId":  course.Modules[0].ID,
		"completed": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var progress struct {
		Progress int `json:"progress"`
	}
	decode(t, w, &progress)
	assert.Equal(t, 50, progress.Progress)

	w = s.do(http.MethodGet, "/v1/courses/does-not-exist", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterDeps{
		Services: &service.Services{},
		Handlers: &handlers.Handlers{},
		Health: map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("down") },
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	decode(t, w, &body)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Components["redis"])
}
