package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-training-backend/internal/storage"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

const testBuilds = "builds"

func newStorageFixture(t *testing.T) (*fixture, *storage.MemoryBlobStore, StorageService) {
	f := newFixture(t)
	blobs := storage.NewMemoryBlobStore()
	blobs.Put(testBuilds, "forklift/index.html", 100)
	blobs.Put(testBuilds, "forklift/assets/model.glb", 5000)
	blobs.Put(testBuilds, "crane/index.html", 80)
	for i := 0; i < 20; i++ {
		blobs.Put(testBuilds, "crane/assets/part-"+string(rune('a'+i))+".bin", 10)
	}
	authority := NewMembershipAuthority(f.repos.UserRepo, f.repos.OrganizationRepo, false)
	svc := NewStorageService(blobs, f.repos.OrganizationRepo, authority, testBuilds, time.Hour)
	return f, blobs, svc
}

func TestStorageService_CreateContainerCopiesBuild(t *testing.T) {
	f, blobs, svc := newStorageFixture(t)
	owner := f.user("owner@example.com")

	copied, err := svc.CreateContainer(f.ctx, owner, owner.ContainerName, "crane")
	require.NoError(t, err)
	assert.Equal(t, 21, copied)

	listed, err := blobs.ListBlobs(f.ctx, owner.ContainerName, "crane/")
	require.NoError(t, err)
	assert.Len(t, listed, 21)

	_, err = svc.CreateContainer(f.ctx, owner, owner.ContainerName, "missing")
	assertKind(t, err, KindNotFound, "build not found")
}

func TestStorageService_ContainerAccess(t *testing.T) {
	f, blobs, svc := newStorageFixture(t)
	owner := f.user("owner@example.com")
	learner := f.user("learner@example.com")
	outsider := f.user("outsider@example.com")
	org, _ := f.org(owner)
	f.member(org, learner, types.RoleMember)
	blobs.Put(org.ContainerName, "reports/q1.pdf", 10)

	_, err := svc.ListBlobs(f.ctx, learner, org.ContainerName, "")
	require.NoError(t, err, "members can read the organization container")

	err = svc.DeleteBlob(f.ctx, learner, org.ContainerName, "reports/q1.pdf")
	assertKind(t, err, KindForbidden, "insufficient role")

	_, err = svc.ListBlobs(f.ctx, outsider, org.ContainerName, "")
	assertKind(t, err, KindForbidden, "not a member")

	_, err = svc.ListBlobs(f.ctx, outsider, owner.ContainerName, "")
	assertKind(t, err, KindForbidden, "no access to container")

	_, err = svc.CreateContainer(f.ctx, owner, testBuilds, "")
	assertKind(t, err, KindForbidden, "builds container is read-only")

	require.NoError(t, svc.DeleteBlob(f.ctx, owner, org.ContainerName, "reports/q1.pdf"))
}

func TestStorageService_ReadURL(t *testing.T) {
	f, _, svc := newStorageFixture(t)
	owner := f.user("owner@example.com")

	url, err := svc.ReadURL(f.ctx, owner, testBuilds, "/forklift/index.html")
	require.NoError(t, err)
	assert.NotEmpty(t, url.URL)
	assert.True(t, url.ExpiresAt.After(time.Now()))

	_, err = svc.ReadURL(f.ctx, owner, testBuilds, "forklift/../../secrets")
	assertKind(t, err, KindBadRequest, "")

	_, err = svc.ReadURL(f.ctx, owner, testBuilds, "forklift/missing.html")
	assertKind(t, err, KindNotFound, "blob not found")
}

func TestStorageService_ListBuilds(t *testing.T) {
	f, _, svc := newStorageFixture(t)

	builds, err := svc.ListBuilds(f.ctx)
	require.NoError(t, err)
	require.Len(t, builds, 2)

	assert.Equal(t, "crane", builds[0].Name)
	assert.Equal(t, 21, builds[0].Files)
	assert.Equal(t, "forklift", builds[1].Name)
	assert.Equal(t, int64(5100), builds[1].Size)
	assert.NotEmpty(t, builds[1].EntryURL)
}
