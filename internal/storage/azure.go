package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
)

// copySourceTTL bounds the SAS handed to the service for server-side copies.
const copySourceTTL = 15 * time.Minute

type AzureBlobStore struct {
	client *azblob.Client
}

// NewAzureBlobStore authenticates with a shared account key. serviceURL is
// usually https://<account>.blob.core.windows.net/.
func NewAzureBlobStore(account, key, serviceURL string) (*AzureBlobStore, error) {
	cred, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credentials: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	logs.Logger.Infof("[Storage] Using Azure blob storage at %s", serviceURL)
	return &AzureBlobStore{client: client}, nil
}

func (s *AzureBlobStore) ContainerExists(ctx context.Context, container string) (bool, error) {
	_, err := s.client.ServiceClient().NewContainerClient(container).GetProperties(ctx, nil)
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *AzureBlobStore) CreateContainer(ctx context.Context, container string) error {
	_, err := s.client.CreateContainer(ctx, container, nil)
	if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil
	}
	return err
}

func (s *AzureBlobStore) ListBlobs(ctx context.Context, container, prefix string) ([]BlobInfo, error) {
	opts := &azblob.ListBlobsFlatOptions{}
	if prefix != "" {
		opts.Prefix = &prefix
	}
	pager := s.client.NewListBlobsFlatPager(container, opts)

	var blobs []BlobInfo
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			info := BlobInfo{Name: *item.Name}
			if p := item.Properties; p != nil {
				if p.ContentLength != nil {
					info.Size = *p.ContentLength
				}
				if p.ContentType != nil {
					info.ContentType = *p.ContentType
				}
				if p.LastModified != nil {
					info.LastModified = *p.LastModified
				}
			}
			blobs = append(blobs, info)
		}
	}
	return blobs, nil
}

func (s *AzureBlobStore) BlobExists(ctx context.Context, container, name string) (bool, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(container).NewBlobClient(name)
	_, err := blobClient.GetProperties(ctx, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *AzureBlobStore) CopyBlob(ctx context.Context, srcContainer, srcName, dstContainer, dstName string) error {
	svc := s.client.ServiceClient()
	src := svc.NewContainerClient(srcContainer).NewBlobClient(srcName)
	srcURL, err := src.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().UTC().Add(copySourceTTL), nil)
	if err != nil {
		return fmt.Errorf("sign copy source: %w", err)
	}

	dst := svc.NewContainerClient(dstContainer).NewBlobClient(dstName)
	_, err = dst.StartCopyFromURL(ctx, srcURL, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.CannotVerifyCopySource) {
		return ErrNotFound
	}
	return err
}

func (s *AzureBlobStore) ReadURL(_ context.Context, container, name string, ttl time.Duration) (string, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(container).NewBlobClient(name)
	return blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().UTC().Add(ttl), nil)
}

func (s *AzureBlobStore) DeleteBlob(ctx context.Context, container, name string) error {
	_, err := s.client.DeleteBlob(ctx, container, name, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return ErrNotFound
	}
	return err
}
