package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
)

const defaultTagColor = "#6B7280"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type TagService interface {
	List(ctx context.Context, organizationID string) ([]*repository.Tag, error)
	Create(ctx context.Context, organizationID, name, color string) (*repository.Tag, error)
	Delete(ctx context.Context, organizationID, tagID string) error
}

type tagService struct {
	tagRepo repository.TagRepository
}

func NewTagService(tagRepo repository.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

func (s *tagService) List(ctx context.Context, organizationID string) ([]*repository.Tag, error) {
	tags, err := s.tagRepo.FindByOrganization(ctx, organizationID)
	if err != nil {
		return nil, Upstream("list tags", err)
	}
	return tags, nil
}

func (s *tagService) Create(ctx context.Context, organizationID, name, color string) (*repository.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, BadRequest("name is required")
	}
	if color == "" {
		color = defaultTagColor
	}
	if !hexColor.MatchString(color) {
		return nil, BadRequest("color must look like #RRGGBB")
	}

	tag := &repository.Tag{OrganizationID: organizationID, Name: name, Color: color}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Conflict("a tag with this name already exists")
		}
		return nil, Upstream("create tag", err)
	}
	return tag, nil
}

func (s *tagService) Delete(ctx context.Context, organizationID, tagID string) error {
	if !validID(tagID) {
		return NotFound("tag")
	}
	tag, err := s.tagRepo.FindByID(ctx, organizationID, tagID)
	if err != nil {
		return Upstream("load tag", err)
	}
	if tag == nil {
		return NotFound("tag")
	}
	if err := s.tagRepo.Delete(ctx, tag.ID); err != nil {
		return Upstream("delete tag", err)
	}
	return nil
}
