package service

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/storage"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// maxParallelCopies bounds concurrent server-side copies per request.
const maxParallelCopies = 8

// Build is one training build: every blob under "<name>/" in the builds container.
type Build struct {
	Name      string    `json:"name"`
	Files     int       `json:"files"`
	Size      int64     `json:"size"`
	EntryURL  string    `json:"entryUrl,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type StorageService interface {
	ListBlobs(ctx context.Context, user *repository.User, container, prefix string) ([]storage.BlobInfo, error)
	// CreateContainer creates container and, when build is set, copies every
	// blob of that build into it. Returns the number of blobs copied.
	CreateContainer(ctx context.Context, user *repository.User, container, build string) (int, error)
	ReadURL(ctx context.Context, user *repository.User, container, blob string) (*SignedURL, error)
	DeleteBlob(ctx context.Context, user *repository.User, container, blob string) error
	ListBuilds(ctx context.Context) ([]*Build, error)
}

type storageService struct {
	blobs           storage.BlobStore
	orgRepo         repository.OrganizationRepository
	authority       MembershipAuthority
	buildsContainer string
	urlTTL          time.Duration
}

func NewStorageService(
	blobs storage.BlobStore,
	orgRepo repository.OrganizationRepository,
	authority MembershipAuthority,
	buildsContainer string,
	urlTTL time.Duration,
) StorageService {
	return &storageService{
		blobs:           blobs,
		orgRepo:         orgRepo,
		authority:       authority,
		buildsContainer: buildsContainer,
		urlTTL:          urlTTL,
	}
}

// authorize grants access to the user's own container, to the builds
// container for reading, and to organization containers through membership.
// manage requires ADMIN or OWNER of the owning organization.
func (s *storageService) authorize(ctx context.Context, user *repository.User, container string, manage bool) error {
	if container == "" {
		return BadRequest("name is required")
	}
	if container == user.ContainerName {
		return nil
	}
	if container == s.buildsContainer {
		if manage {
			return Forbidden("builds container is read-only")
		}
		return nil
	}

	org, err := s.orgRepo.FindByContainer(ctx, container)
	if err != nil {
		return Upstream("load container owner", err)
	}
	if org == nil {
		return Forbidden("no access to container")
	}
	roles := types.AnyRole
	if manage {
		roles = types.ManagerRoles
	}
	_, err = s.authority.Authorize(ctx, user.ID, org.ID, roles...)
	return err
}

// cleanBlobPath rejects empty and parent-relative blob names.
func cleanBlobPath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", BadRequest("path is required")
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", BadRequest("path must not contain ..")
		}
	}
	return p, nil
}

func (s *storageService) ListBlobs(ctx context.Context, user *repository.User, container, prefix string) ([]storage.BlobInfo, error) {
	if err := s.authorize(ctx, user, container, false); err != nil {
		return nil, err
	}
	blobs, err := s.blobs.ListBlobs(ctx, container, prefix)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, NotFound("container")
	}
	if err != nil {
		return nil, Upstream("list blobs", err)
	}
	if blobs == nil {
		blobs = []storage.BlobInfo{}
	}
	return blobs, nil
}

func (s *storageService) CreateContainer(ctx context.Context, user *repository.User, container, build string) (int, error) {
	if err := s.authorize(ctx, user, container, true); err != nil {
		return 0, err
	}
	if err := s.blobs.CreateContainer(ctx, container); err != nil {
		return 0, Upstream("create container", err)
	}
	if build == "" {
		return 0, nil
	}

	prefix := strings.Trim(build, "/") + "/"
	sources, err := s.blobs.ListBlobs(ctx, s.buildsContainer, prefix)
	if err != nil {
		return 0, Upstream("list build", err)
	}
	if len(sources) == 0 {
		return 0, NotFound("build")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCopies)
	for _, src := range sources {
		name := src.Name
		g.Go(func() error {
			return s.blobs.CopyBlob(gctx, s.buildsContainer, name, container, name)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, Upstream("copy build", err)
	}

	logs.Logger.Infof("[Storage] Copied %d blobs of build %s into %s", len(sources), build, container)
	return len(sources), nil
}

func (s *storageService) ReadURL(ctx context.Context, user *repository.User, container, blob string) (*SignedURL, error) {
	name, err := cleanBlobPath(blob)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, user, container, false); err != nil {
		return nil, err
	}
	exists, err := s.blobs.BlobExists(ctx, container, name)
	if err != nil {
		return nil, Upstream("check blob", err)
	}
	if !exists {
		return nil, NotFound("blob")
	}
	url, err := s.blobs.ReadURL(ctx, container, name, s.urlTTL)
	if err != nil {
		return nil, Upstream("sign blob url", err)
	}
	return &SignedURL{URL: url, ExpiresAt: time.Now().Add(s.urlTTL)}, nil
}

func (s *storageService) DeleteBlob(ctx context.Context, user *repository.User, container, blob string) error {
	name, err := cleanBlobPath(blob)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, user, container, true); err != nil {
		return err
	}
	if err := s.blobs.DeleteBlob(ctx, container, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NotFound("blob")
		}
		return Upstream("delete blob", err)
	}
	return nil
}

const buildEntryFile = "index.html"

func (s *storageService) ListBuilds(ctx context.Context) ([]*Build, error) {
	blobs, err := s.blobs.ListBlobs(ctx, s.buildsContainer, "")
	if errors.Is(err, storage.ErrNotFound) {
		return []*Build{}, nil
	}
	if err != nil {
		return nil, Upstream("list builds", err)
	}

	expiresAt := time.Now().Add(s.urlTTL)
	byName := make(map[string]*Build)
	for _, b := range blobs {
		name, rest, ok := strings.Cut(b.Name, "/")
		if !ok || name == "" {
			continue
		}
		build, ok := byName[name]
		if !ok {
			build = &Build{Name: name, ExpiresAt: expiresAt}
			byName[name] = build
		}
		build.Files++
		build.Size += b.Size
		if rest == buildEntryFile {
			url, err := s.blobs.ReadURL(ctx, s.buildsContainer, path.Join(name, buildEntryFile), s.urlTTL)
			if err != nil {
				return nil, Upstream("sign build url", err)
			}
			build.EntryURL = url
		}
	}

	builds := make([]*Build, 0, len(byName))
	for _, b := range byName {
		builds = append(builds, b)
	}
	sort.Slice(builds, func(i, j int) bool { return builds[i].Name < builds[j].Name })
	return builds, nil
}
