package service

import (
	"context"
	"strings"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/storage"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// ============================================
// Organization Service
// ============================================

type OrganizationService interface {
	List(ctx context.Context, userID string) ([]*repository.Organization, error)
	// Create makes the caller the first OWNER in the same transaction as the
	// organization row.
	Create(ctx context.Context, userID, name string, description *string) (*repository.Organization, *repository.OrganizationMember, error)
	Get(ctx context.Context, organizationID string) (*repository.Organization, error)
	Update(ctx context.Context, organizationID string, name, description *string) (*repository.Organization, error)
	Delete(ctx context.Context, organizationID string) error
}

type organizationService struct {
	orgRepo repository.OrganizationRepository
	blobs   storage.BlobStore
}

func NewOrganizationService(orgRepo repository.OrganizationRepository, blobs storage.BlobStore) OrganizationService {
	return &organizationService{orgRepo: orgRepo, blobs: blobs}
}

func (s *organizationService) List(ctx context.Context, userID string) ([]*repository.Organization, error) {
	orgs, err := s.orgRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, Upstream("list organizations", err)
	}
	return orgs, nil
}

func (s *organizationService) Create(ctx context.Context, userID, name string, description *string) (*repository.Organization, *repository.OrganizationMember, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, BadRequest("name is required")
	}

	org := &repository.Organization{
		Name:          name,
		Description:   description,
		ContainerName: containerName("org"),
	}
	owner := &repository.OrganizationMember{UserID: userID, Role: types.RoleOwner}
	if err := s.orgRepo.Create(ctx, org, owner); err != nil {
		return nil, nil, Upstream("create organization", err)
	}

	// The container only holds copied builds; the organization is usable
	// without it and it is created again on first copy.
	if s.blobs != nil {
		if err := s.blobs.CreateContainer(ctx, org.ContainerName); err != nil {
			logs.Logger.Warnf("[Organization] Failed to create container %s: %v", org.ContainerName, err)
		}
	}

	logs.Logger.Infof("[Organization] Created %s (%s) owned by %s", org.Name, org.ID, userID)
	return org, owner, nil
}

func (s *organizationService) Get(ctx context.Context, organizationID string) (*repository.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, organizationID)
	if err != nil {
		return nil, Upstream("load organization", err)
	}
	if org == nil {
		return nil, NotFound("organization")
	}
	return org, nil
}

func (s *organizationService) Update(ctx context.Context, organizationID string, name, description *string) (*repository.Organization, error) {
	org, err := s.Get(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, BadRequest("name must not be empty")
		}
		org.Name = trimmed
	}
	if description != nil {
		org.Description = description
	}
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, Upstream("update organization", err)
	}
	return org, nil
}

func (s *organizationService) Delete(ctx context.Context, organizationID string) error {
	if _, err := s.Get(ctx, organizationID); err != nil {
		return err
	}
	if err := s.orgRepo.Delete(ctx, organizationID); err != nil {
		return Upstream("delete organization", err)
	}
	logs.Logger.Infof("[Organization] Deleted %s", organizationID)
	return nil
}
