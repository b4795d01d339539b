package distribution

import (
	"context"
	"time"
)

// DriveClient is the port hit clips are published through
type DriveClient interface {
	// FindFileByName returns the file named name in a folder, or nil when absent
	FindFileByName(ctx context.Context, folderID, name string) (*FileInfo, error)

	// GetStorageQuota returns the quota of the uploading account
	GetStorageQuota(ctx context.Context) (*StorageInfo, error)

	// DeletePermanently removes a clip so a re-cut one can take its name
	DeletePermanently(ctx context.Context, fileID string) error

	// UploadAndShare uploads a file and grants "anyone with the link" read access
	UploadAndShare(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// FileInfo describes a clip already in the Drive folder
type FileInfo struct {
	ID          string
	Name        string
	MimeType    string
	Size        int64
	CreatedTime time.Time
}
