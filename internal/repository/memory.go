package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// memoryStore holds every table behind one lock so multi-table operations
// (org create, accept invitation, unenroll) stay atomic.
type memoryStore struct {
	mu sync.RWMutex

	users         map[string]*User
	organizations map[string]*Organization
	members       map[string]*OrganizationMember
	invitations   map[string]*Invitation
	tags          map[string]*Tag
	courses       map[string]*Course
	modules       map[string]*CourseModule
	scenarios     map[string]*Scenario
	enrollments   map[string]*Enrollment
	responses     map[string]*QuizResponse
	sessions      map[string]*TrainingSession
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:         make(map[string]*User),
		organizations: make(map[string]*Organization),
		members:       make(map[string]*OrganizationMember),
		invitations:   make(map[string]*Invitation),
		tags:          make(map[string]*Tag),
		courses:       make(map[string]*Course),
		modules:       make(map[string]*CourseModule),
		scenarios:     make(map[string]*Scenario),
		enrollments:   make(map[string]*Enrollment),
		responses:     make(map[string]*QuizResponse),
		sessions:      make(map[string]*TrainingSession),
	}
}

func newID() string { return uuid.New().String() }

// ============================================
// Users
// ============================================

type memoryUserRepository struct{ s *memoryStore }

func (r *memoryUserRepository) Upsert(_ context.Context, user *User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.AuthSubject == user.AuthSubject {
			*user = *u
			return false, nil
		}
	}
	for _, u := range r.s.users {
		if u.ContainerName == user.ContainerName {
			return false, ErrDuplicate
		}
	}

	now := time.Now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.s.users[user.ID] = &stored
	return true, nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *memoryUserRepository) FindBySubject(_ context.Context, subject string) (*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.AuthSubject == subject {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[user.ID]
	if !ok {
		return nil
	}
	u.Email = user.Email
	u.Name = user.Name
	u.Picture = user.Picture
	u.UpdatedAt = time.Now()
	user.UpdatedAt = u.UpdatedAt
	return nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	for mid, m := range r.s.members {
		if m.UserID == id {
			delete(r.s.members, mid)
		}
	}
	for eid, e := range r.s.enrollments {
		if e.UserID == id {
			r.s.deleteEnrollmentLocked(eid)
		}
	}
	for sid, ts := range r.s.sessions {
		if ts.UserID == id {
			delete(r.s.sessions, sid)
		}
	}
	return nil
}

// ============================================
// Organizations and members
// ============================================

type memoryOrganizationRepository struct{ s *memoryStore }

func (r *memoryOrganizationRepository) Create(_ context.Context, org *Organization, owner *OrganizationMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.organizations {
		if o.ContainerName == org.ContainerName {
			return ErrDuplicate
		}
	}

	now := time.Now()
	org.ID = newID()
	org.CreatedAt = now
	org.UpdatedAt = now
	stored := *org
	r.s.organizations[org.ID] = &stored

	owner.ID = newID()
	owner.OrganizationID = org.ID
	owner.JoinedAt = now
	m := *owner
	m.User = nil
	r.s.members[owner.ID] = &m
	return nil
}

func (r *memoryOrganizationRepository) FindByID(_ context.Context, id string) (*Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if o, ok := r.s.organizations[id]; ok {
		c := *o
		return &c, nil
	}
	return nil, nil
}

func (r *memoryOrganizationRepository) FindByUserID(_ context.Context, userID string) ([]*Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var orgs []*Organization
	for _, m := range r.s.members {
		if m.UserID != userID {
			continue
		}
		if o, ok := r.s.organizations[m.OrganizationID]; ok {
			c := *o
			orgs = append(orgs, &c)
		}
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs, nil
}

func (r *memoryOrganizationRepository) FindByContainer(_ context.Context, containerName string) (*Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, o := range r.s.organizations {
		if o.ContainerName == containerName {
			c := *o
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memoryOrganizationRepository) Update(_ context.Context, org *Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.organizations[org.ID]; ok {
		o.Name = org.Name
		o.Description = org.Description
		o.UpdatedAt = time.Now()
		org.UpdatedAt = o.UpdatedAt
	}
	return nil
}

func (r *memoryOrganizationRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.organizations, id)
	for mid, m := range r.s.members {
		if m.OrganizationID == id {
			delete(r.s.members, mid)
		}
	}
	for iid, inv := range r.s.invitations {
		if inv.OrganizationID == id {
			delete(r.s.invitations, iid)
		}
	}
	for tid, t := range r.s.tags {
		if t.OrganizationID == id {
			delete(r.s.tags, tid)
		}
	}
	for cid, c := range r.s.courses {
		if c.OrganizationID == id {
			r.s.deleteCourseLocked(cid)
		}
	}
	return nil
}

func (r *memoryOrganizationRepository) AddMember(_ context.Context, member *OrganizationMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.addMemberLocked(member)
}

func (s *memoryStore) addMemberLocked(member *OrganizationMember) error {
	for _, m := range s.members {
		if m.OrganizationID == member.OrganizationID && m.UserID == member.UserID {
			return ErrDuplicate
		}
	}
	member.ID = newID()
	member.JoinedAt = time.Now()
	stored := *member
	stored.User = nil
	s.members[member.ID] = &stored
	return nil
}

func (s *memoryStore) memberWithUser(m *OrganizationMember) *OrganizationMember {
	c := *m
	if u, ok := s.users[m.UserID]; ok {
		uc := *u
		c.User = &uc
	}
	return &c
}

func (r *memoryOrganizationRepository) FindMember(_ context.Context, organizationID, userID string) (*OrganizationMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.members {
		if m.OrganizationID == organizationID && m.UserID == userID {
			return r.s.memberWithUser(m), nil
		}
	}
	return nil, nil
}

func (r *memoryOrganizationRepository) FindMemberByID(_ context.Context, organizationID, memberID string) (*OrganizationMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if m, ok := r.s.members[memberID]; ok && m.OrganizationID == organizationID {
		return r.s.memberWithUser(m), nil
	}
	return nil, nil
}

func (r *memoryOrganizationRepository) FindMembers(_ context.Context, organizationID string) ([]*OrganizationMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var members []*OrganizationMember
	for _, m := range r.s.members {
		if m.OrganizationID == organizationID {
			members = append(members, r.s.memberWithUser(m))
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members, nil
}

func (r *memoryOrganizationRepository) FindMembershipsByUser(_ context.Context, userID string) ([]*OrganizationMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var members []*OrganizationMember
	for _, m := range r.s.members {
		if m.UserID == userID {
			c := *m
			members = append(members, &c)
		}
	}
	return members, nil
}

func (r *memoryOrganizationRepository) UpdateMemberRole(_ context.Context, memberID string, role types.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.members[memberID]; ok {
		m.Role = role
	}
	return nil
}

func (r *memoryOrganizationRepository) RemoveMember(_ context.Context, memberID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.members, memberID)
	return nil
}

func (r *memoryOrganizationRepository) CountOwners(_ context.Context, organizationID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, m := range r.s.members {
		if m.OrganizationID == organizationID && m.Role == types.RoleOwner {
			n++
		}
	}
	return n, nil
}

func (r *memoryOrganizationRepository) SharesOrganization(_ context.Context, managerID, userID string, roles []types.Role) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, mgr := range r.s.members {
		if mgr.UserID != managerID || !types.RoleIn(mgr.Role, roles) {
			continue
		}
		for _, target := range r.s.members {
			if target.OrganizationID == mgr.OrganizationID && target.UserID == userID {
				return true, nil
			}
		}
	}
	return false, nil
}

// ============================================
// Invitations
// ============================================

type memoryInvitationRepository struct{ s *memoryStore }

func (r *memoryInvitationRepository) Create(_ context.Context, invitation *Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if invitation.Token == "" {
		invitation.Token = newID()
	}
	if invitation.Status == "" {
		invitation.Status = types.InvitationPending
	}
	invitation.ID = newID()
	invitation.CreatedAt = time.Now()
	stored := *invitation
	r.s.invitations[invitation.ID] = &stored
	return nil
}

func (r *memoryInvitationRepository) FindByID(_ context.Context, organizationID, id string) (*Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if inv, ok := r.s.invitations[id]; ok && inv.OrganizationID == organizationID {
		c := *inv
		return &c, nil
	}
	return nil, nil
}

func (r *memoryInvitationRepository) FindPendingByOrganization(_ context.Context, organizationID string) ([]*Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []*Invitation
	for _, inv := range r.s.invitations {
		if inv.OrganizationID == organizationID && inv.Status == types.InvitationPending {
			c := *inv
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *memoryInvitationRepository) FindPendingByEmail(_ context.Context, organizationID, email string) (*Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *Invitation
	for _, inv := range r.s.invitations {
		if inv.OrganizationID != organizationID || inv.Status != types.InvitationPending || !strings.EqualFold(inv.Email, email) {
			continue
		}
		if found == nil || inv.CreatedAt.After(found.CreatedAt) {
			found = inv
		}
	}
	if found == nil {
		return nil, nil
	}
	c := *found
	return &c, nil
}

func (r *memoryInvitationRepository) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv, ok := r.s.invitations[id]; ok {
		inv.Status = status
	}
	return nil
}

func (r *memoryInvitationRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.invitations, id)
	return nil
}

func (r *memoryInvitationRepository) Accept(_ context.Context, invitationID string, member *OrganizationMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.addMemberLocked(member); err != nil {
		return err
	}
	if inv, ok := r.s.invitations[invitationID]; ok {
		inv.Status = types.InvitationAccepted
	}
	return nil
}

func (r *memoryInvitationRepository) ExpirePending(_ context.Context, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, inv := range r.s.invitations {
		if inv.Status == types.InvitationPending && inv.ExpiresAt.Before(now) {
			inv.Status = types.InvitationExpired
			n++
		}
	}
	return n, nil
}

// ============================================
// Tags
// ============================================

type memoryTagRepository struct{ s *memoryStore }

func (r *memoryTagRepository) Create(_ context.Context, tag *Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tags {
		if t.OrganizationID == tag.OrganizationID && t.Name == tag.Name {
			return ErrDuplicate
		}
	}
	tag.ID = newID()
	tag.CreatedAt = time.Now()
	stored := *tag
	r.s.tags[tag.ID] = &stored
	return nil
}

func (r *memoryTagRepository) FindByID(_ context.Context, organizationID, id string) (*Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if t, ok := r.s.tags[id]; ok && t.OrganizationID == organizationID {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (r *memoryTagRepository) FindByOrganization(_ context.Context, organizationID string) ([]*Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var tags []*Tag
	for _, t := range r.s.tags {
		if t.OrganizationID == organizationID {
			c := *t
			tags = append(tags, &c)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (r *memoryTagRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tags, id)
	return nil
}

// ============================================
// Courses
// ============================================

type memoryCourseRepository struct{ s *memoryStore }

func (s *memoryStore) courseCopyLocked(c *Course, withChildren bool) *Course {
	cc := *c
	cc.TagIDs = append([]string(nil), c.TagIDs...)
	cc.Modules = nil
	cc.Scenarios = nil
	if !withChildren {
		return &cc
	}
	for _, m := range s.modules {
		if m.CourseID == c.ID {
			mc := *m
			mc.Scenarios = nil
			cc.Modules = append(cc.Modules, &mc)
		}
	}
	sort.Slice(cc.Modules, func(i, j int) bool { return cc.Modules[i].Position < cc.Modules[j].Position })
	for _, sc := range s.scenarios {
		if sc.CourseID == c.ID {
			scc := *sc
			cc.Scenarios = append(cc.Scenarios, &scc)
		}
	}
	sort.Slice(cc.Scenarios, func(i, j int) bool { return cc.Scenarios[i].CreatedAt.Before(cc.Scenarios[j].CreatedAt) })
	return &cc
}

func (r *memoryCourseRepository) Create(_ context.Context, course *Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	course.ID = newID()
	course.CreatedAt = now
	course.UpdatedAt = now
	stored := *course
	stored.TagIDs = append([]string(nil), course.TagIDs...)
	stored.Modules = nil
	stored.Scenarios = nil
	r.s.courses[course.ID] = &stored

	course.Scenarios = nil
	for i, m := range course.Modules {
		m.ID = newID()
		m.CourseID = course.ID
		if m.Position == 0 {
			m.Position = i + 1
		}
		mc := *m
		mc.Scenarios = nil
		r.s.modules[m.ID] = &mc

		for _, sc := range m.Scenarios {
			moduleID := m.ID
			sc.ID = newID()
			sc.CourseID = course.ID
			sc.ModuleID = &moduleID
			sc.CreatedAt = now
			scc := *sc
			r.s.scenarios[sc.ID] = &scc
			course.Scenarios = append(course.Scenarios, sc)
		}
	}
	return nil
}

func (r *memoryCourseRepository) FindByID(_ context.Context, id string) (*Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.courses[id]; ok {
		return r.s.courseCopyLocked(c, true), nil
	}
	return nil, nil
}

func (r *memoryCourseRepository) FindByOrganizations(_ context.Context, organizationIDs []string) ([]*Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wanted := make(map[string]bool, len(organizationIDs))
	for _, id := range organizationIDs {
		wanted[id] = true
	}
	var courses []*Course
	for _, c := range r.s.courses {
		if wanted[c.OrganizationID] {
			courses = append(courses, r.s.courseCopyLocked(c, false))
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })
	return courses, nil
}

func (r *memoryCourseRepository) Update(_ context.Context, course *Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.courses[course.ID]; ok {
		c.Title = course.Title
		c.Description = course.Description
		c.BuildName = course.BuildName
		c.TagIDs = append([]string(nil), course.TagIDs...)
		c.UpdatedAt = time.Now()
		course.UpdatedAt = c.UpdatedAt
	}
	return nil
}

func (r *memoryCourseRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deleteCourseLocked(id)
	return nil
}

func (s *memoryStore) deleteCourseLocked(id string) {
	for eid, e := range s.enrollments {
		if e.CourseID == id {
			s.deleteEnrollmentLocked(eid)
		}
	}
	for mid, m := range s.modules {
		if m.CourseID == id {
			delete(s.modules, mid)
		}
	}
	for sid, sc := range s.scenarios {
		if sc.CourseID == id {
			delete(s.scenarios, sid)
		}
	}
	for tid, ts := range s.sessions {
		if ts.CourseID == id {
			delete(s.sessions, tid)
		}
	}
	delete(s.courses, id)
}

func (r *memoryCourseRepository) CreateScenario(_ context.Context, scenario *Scenario) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	scenario.ID = newID()
	scenario.CreatedAt = time.Now()
	stored := *scenario
	r.s.scenarios[scenario.ID] = &stored
	return nil
}

func (r *memoryCourseRepository) FindScenario(_ context.Context, courseID, scenarioID string) (*Scenario, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sc, ok := r.s.scenarios[scenarioID]; ok && sc.CourseID == courseID {
		c := *sc
		return &c, nil
	}
	return nil, nil
}

// ============================================
// Enrollments
// ============================================

type memoryEnrollmentRepository struct{ s *memoryStore }

func copyEnrollment(e *Enrollment) *Enrollment {
	c := *e
	c.CompletedModules = append([]string(nil), e.CompletedModules...)
	return &c
}

func (s *memoryStore) findEnrollmentLocked(userID, courseID string) *Enrollment {
	for _, e := range s.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return e
		}
	}
	return nil
}

func (s *memoryStore) deleteEnrollmentLocked(id string) {
	for qid, q := range s.responses {
		if q.EnrollmentID == id {
			delete(s.responses, qid)
		}
	}
	delete(s.enrollments, id)
}

func (r *memoryEnrollmentRepository) Enroll(_ context.Context, e *Enrollment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing := r.s.findEnrollmentLocked(e.UserID, e.CourseID); existing != nil {
		*e = *copyEnrollment(existing)
		return false, nil
	}
	now := time.Now()
	e.ID = newID()
	e.CompletedModules = []string{}
	e.Progress = 0
	e.EnrolledAt = now
	e.UpdatedAt = now
	r.s.enrollments[e.ID] = copyEnrollment(e)
	return true, nil
}

func (r *memoryEnrollmentRepository) Find(_ context.Context, userID, courseID string) (*Enrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if e := r.s.findEnrollmentLocked(userID, courseID); e != nil {
		return copyEnrollment(e), nil
	}
	return nil, nil
}

func (r *memoryEnrollmentRepository) FindByUser(_ context.Context, userID string) ([]*EnrollmentWithCourse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []*EnrollmentWithCourse
	for _, e := range r.s.enrollments {
		if e.UserID != userID {
			continue
		}
		c, ok := r.s.courses[e.CourseID]
		if !ok {
			continue
		}
		count := 0
		for _, m := range r.s.modules {
			if m.CourseID == c.ID {
				count++
			}
		}
		result = append(result, &EnrollmentWithCourse{
			Enrollment:     *copyEnrollment(e),
			CourseTitle:    c.Title,
			OrganizationID: c.OrganizationID,
			ModuleCount:    count,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EnrolledAt.After(result[j].EnrolledAt) })
	return result, nil
}

func (r *memoryEnrollmentRepository) UpdateProgress(_ context.Context, userID, courseID string, apply func(*Enrollment)) (*Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.findEnrollmentLocked(userID, courseID)
	if stored == nil {
		return nil, nil
	}
	e := copyEnrollment(stored)
	apply(e)
	stored.CompletedModules = append([]string(nil), e.CompletedModules...)
	stored.Progress = e.Progress
	stored.UpdatedAt = time.Now()
	e.UpdatedAt = stored.UpdatedAt
	return e, nil
}

func (r *memoryEnrollmentRepository) Unenroll(_ context.Context, userID, courseID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := r.s.findEnrollmentLocked(userID, courseID)
	if e == nil {
		return false, nil
	}
	r.s.deleteEnrollmentLocked(e.ID)
	return true, nil
}

func (r *memoryEnrollmentRepository) AddQuizResponse(_ context.Context, q *QuizResponse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q.ID = newID()
	q.CreatedAt = time.Now()
	stored := *q
	r.s.responses[q.ID] = &stored
	return nil
}

func (r *memoryEnrollmentRepository) CountQuizResponses(_ context.Context, enrollmentID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, q := range r.s.responses {
		if q.EnrollmentID == enrollmentID {
			n++
		}
	}
	return n, nil
}

// ============================================
// Training sessions
// ============================================

type memoryTrainingSessionRepository struct{ s *memoryStore }

func (r *memoryTrainingSessionRepository) Create(_ context.Context, ts *TrainingSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts.ID = newID()
	ts.StartedAt = time.Now()
	stored := *ts
	r.s.sessions[ts.ID] = &stored
	return nil
}

func (r *memoryTrainingSessionRepository) FindByID(_ context.Context, id string) (*TrainingSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if ts, ok := r.s.sessions[id]; ok {
		c := *ts
		return &c, nil
	}
	return nil, nil
}

func (r *memoryTrainingSessionRepository) Update(_ context.Context, ts *TrainingSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stored, ok := r.s.sessions[ts.ID]; ok {
		stored.Status = ts.Status
		stored.Score = ts.Score
		stored.DurationSeconds = ts.DurationSeconds
		stored.EndedAt = ts.EndedAt
	}
	return nil
}

func (r *memoryTrainingSessionRepository) AbandonStale(_ context.Context, cutoff time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	n := 0
	for _, ts := range r.s.sessions {
		if ts.Status == types.SessionActive && ts.StartedAt.Before(cutoff) {
			ts.Status = types.SessionAbandoned
			ts.EndedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *memoryTrainingSessionRepository) StatsForUser(_ context.Context, userID string) (*UserStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &UserStats{UserID: userID}
	progressTotal := 0
	for _, e := range r.s.enrollments {
		if e.UserID != userID {
			continue
		}
		stats.EnrolledCourses++
		progressTotal += e.Progress
		if e.Progress == 100 {
			stats.CompletedCourses++
		}
		for _, q := range r.s.responses {
			if q.EnrollmentID == e.ID {
				stats.QuizResponses++
				if q.Correct {
					stats.CorrectResponses++
				}
			}
		}
	}
	if stats.EnrolledCourses > 0 {
		stats.AverageProgress = float64(progressTotal) / float64(stats.EnrolledCourses)
	}

	scoreTotal, scored := 0, 0
	for _, ts := range r.s.sessions {
		if ts.UserID != userID {
			continue
		}
		stats.Sessions++
		stats.TrainingSeconds += ts.DurationSeconds
		if ts.Status == types.SessionCompleted {
			stats.CompletedSessions++
		}
		if ts.Score != nil {
			scoreTotal += *ts.Score
			scored++
		}
	}
	if scored > 0 {
		avg := float64(scoreTotal) / float64(scored)
		stats.AverageScore = &avg
	}
	return stats, nil
}
