// internal/seed/seed.go
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/storage"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// DemoSubject is the identity-provider subject of the seeded owner. Sign a
// development token with this subject to act as the demo owner.
const DemoSubject = "seed|demo-owner"

// DemoBuild is the build referenced by the seeded scenarios.
const DemoBuild = "forklift-basics"

// SeedData creates a demo organization with one course. It does nothing
// when the demo owner already exists.
func SeedData(ctx context.Context, repos *repository.Repositories, blobs storage.BlobStore, buildsContainer string) error {
	owner := &repository.User{
		AuthSubject:   DemoSubject,
		Email:         "trainer@example.com",
		Name:          "Demo Trainer",
		ContainerName: "user-" + uuid.New().String(),
	}
	created, err := repos.UserRepo.Upsert(ctx, owner)
	if err != nil {
		return fmt.Errorf("seed owner: %w", err)
	}
	if !created {
		logs.Logger.Info("[Seed] Demo data already exists, skipping")
		return nil
	}

	logs.Logger.Info("[Seed] Creating demo data...")

	// ============================================
	// Organization, owned by the demo trainer
	// ============================================
	description := "Demo plant for local development"
	org := &repository.Organization{
		Name:          "Demo Manufacturing",
		Description:   &description,
		ContainerName: "org-" + uuid.New().String(),
	}
	membership := &repository.OrganizationMember{UserID: owner.ID, Role: types.RoleOwner}
	if err := repos.OrganizationRepo.Create(ctx, org, membership); err != nil {
		return fmt.Errorf("seed organization: %w", err)
	}

	safety := &repository.Tag{OrganizationID: org.ID, Name: "Safety", Color: "#DC2626"}
	if err := repos.TagRepo.Create(ctx, safety); err != nil {
		return fmt.Errorf("seed tag: %w", err)
	}

	// ============================================
	// Course with two modules and their scenarios
	// ============================================
	courseDescription := "Pre-shift inspection and safe operation of a counterbalance forklift"
	build := DemoBuild
	course := &repository.Course{
		OrganizationID: org.ID,
		Title:          "Forklift Operation Basics",
		Description:    &courseDescription,
		BuildName:      &build,
		TagIDs:         []string{safety.ID},
		Modules: []*repository.CourseModule{
			{
				Title: "Pre-shift inspection",
				Scenarios: []*repository.Scenario{
					{Name: "Walkaround check", BuildPath: DemoBuild + "/inspection/index.html"},
				},
			},
			{
				Title: "Loading and stacking",
				Scenarios: []*repository.Scenario{
					{Name: "Pallet stacking", BuildPath: DemoBuild + "/stacking/index.html"},
				},
			},
		},
	}
	if err := repos.CourseRepo.Create(ctx, course); err != nil {
		return fmt.Errorf("seed course: %w", err)
	}

	// The in-memory store starts empty; give the demo build some files.
	if mem, ok := blobs.(*storage.MemoryBlobStore); ok {
		mem.Put(buildsContainer, DemoBuild+"/index.html", 2048)
		mem.Put(buildsContainer, DemoBuild+"/inspection/index.html", 4096)
		mem.Put(buildsContainer, DemoBuild+"/stacking/index.html", 4096)
		mem.Put(buildsContainer, DemoBuild+"/assets/model.glb", 1<<20)
		mem.Put(owner.ContainerName, "notes.txt", 128)
	}

	logs.Logger.Infof("[Seed] Created organization %q with course %q (%d scenarios)", org.Name, course.Title, len(course.Scenarios))
	return nil
}
