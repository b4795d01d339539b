package distribution

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vod-hit-finder/domain/distribution"
)

// UploadService publishes clips to a Google Drive folder
type UploadService struct {
	driveClient distribution.DriveClient
	folderID    string
	logger      *slog.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(client distribution.DriveClient, folderID string, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		driveClient: client,
		folderID:    folderID,
		logger:      logger,
	}
}

// UploadClip uploads a clip, replacing any file of the same name, and shares it publicly
func (s *UploadService) UploadClip(ctx context.Context, clipPath string) (*distribution.UploadResult, error) {
	stat, err := os.Stat(clipPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", clipPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", clipPath, err)
	}

	fileName := filepath.Base(clipPath)

	existing, err := s.driveClient.FindFileByName(ctx, s.folderID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing file: %w", err)
	}

	var reclaimed int64
	if existing != nil {
		reclaimed = existing.Size
	}

	quota, err := s.driveClient.GetStorageQuota(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check storage quota: %w", err)
	}
	if !quota.HasSpaceFor(stat.Size() - reclaimed) {
		return nil, fmt.Errorf("not enough Drive space for %s: need %d bytes, %d available",
			fileName, stat.Size()-reclaimed, quota.AvailableBytes)
	}

	if existing != nil {
		s.logger.Info("replacing existing clip", "file", existing.Name, "size_mb", float64(existing.Size)/1024/1024)
		if err := s.driveClient.DeletePermanently(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete existing file %s: %w", existing.Name, err)
		}
	}

	req := distribution.UploadRequest{
		LocalPath: clipPath,
		FileName:  fileName,
		FolderID:  s.folderID,
		MimeType:  distribution.MimeTypeMP4,
	}

	result, err := s.driveClient.UploadAndShare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", fileName, err)
	}

	s.logger.Info("clip uploaded", "file", result.FileName, "url", result.ShareableURL)
	return result, nil
}
