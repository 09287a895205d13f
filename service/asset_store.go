package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"promo-designer/models"
	"promo-designer/utils"
)

// DriveAssetStore serves product assets from a Google Drive folder tree:
// one subfolder per product key, image files named by the
// {sanitizedColor}-{view}.png convention.
type DriveAssetStore struct {
	client       *drive.Service
	rootFolderID string

	mu      sync.Mutex
	folders map[string]string // productKey -> folder id
}

// NewDriveAssetStore creates a Drive-backed asset store.
// credentialsPath should be the path to the Service Account JSON file.
func NewDriveAssetStore(credentialsPath, rootFolderID string) (*DriveAssetStore, error) {
	ctx := context.Background()

	client, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveAssetStore{
		client:       client,
		rootFolderID: rootFolderID,
		folders:      make(map[string]string),
	}, nil
}

// Ensure DriveAssetStore implements AssetStoreInterface
var _ AssetStoreInterface = (*DriveAssetStore)(nil)

// productFolderID resolves (and caches) the Drive folder id for a product key
func (s *DriveAssetStore) productFolderID(productKey string) (string, error) {
	s.mu.Lock()
	if id, ok := s.folders[productKey]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	query := fmt.Sprintf(
		"name='%s' and '%s' in parents and mimeType='application/vnd.google-apps.folder' and trashed=false",
		productKey, s.rootFolderID,
	)
	r, err := s.client.Files.List().Q(query).Fields("files(id)").Do()
	if err != nil {
		return "", fmt.Errorf("failed to list product folders: %w", err)
	}
	if len(r.Files) == 0 {
		return "", fmt.Errorf("asset folder for product %q: %w", productKey, models.ErrNotFound)
	}

	id := r.Files[0].Id
	s.mu.Lock()
	s.folders[productKey] = id
	s.mu.Unlock()
	return id, nil
}

// findFile looks up a single file by name within a product's folder
func (s *DriveAssetStore) findFile(productKey, fileName string) (string, bool, error) {
	folderID, err := s.productFolderID(productKey)
	if err != nil {
		if isNotFoundErr(err) {
			return "", false, nil
		}
		return "", false, err
	}

	query := fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", fileName, folderID)
	r, err := s.client.Files.List().Q(query).Fields("files(id, name, mimeType)").Do()
	if err != nil {
		return "", false, fmt.Errorf("failed to look up asset %s/%s: %w", productKey, fileName, err)
	}
	if len(r.Files) == 0 {
		return "", false, nil
	}
	return r.Files[0].Id, true, nil
}

// download fetches the raw bytes of a Drive file
func (s *DriveAssetStore) download(fileID string) ([]byte, error) {
	res, err := s.client.Files.Get(fileID).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download drive file %s: %w", fileID, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive file %s: %w", fileID, err)
	}
	return data, nil
}

// FindProductPhoto looks up an uploaded color-specific photo:
// {productKey}/{sanitizedColor}-{view}.png
func (s *DriveAssetStore) FindProductPhoto(ctx context.Context, productKey, colorName string, view models.View) ([]byte, bool, error) {
	fileName := fmt.Sprintf("%s-%s.png", utils.SanitizeColorName(colorName), view)

	fileID, found, err := s.findFile(productKey, fileName)
	if err != nil || !found {
		return nil, false, err
	}

	data, err := s.download(fileID)
	if err != nil {
		return nil, false, err
	}

	log.Printf("📷 Uploaded photo found: %s/%s", productKey, fileName)
	return data, true, nil
}

// FetchNeutralBaseline returns the shared neutral baseline for a view:
// {productKey}/neutral-{view}.png
func (s *DriveAssetStore) FetchNeutralBaseline(ctx context.Context, productKey string, view models.View) ([]byte, error) {
	fileName := fmt.Sprintf("neutral-%s.png", view)

	fileID, found, err := s.findFile(productKey, fileName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("neutral baseline %s/%s: %w", productKey, fileName, models.ErrNotFound)
	}

	return s.download(fileID)
}

// FetchURL downloads a pre-rendered asset by public URL
func (s *DriveAssetStore) FetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build asset request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("asset %s: %w", url, models.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset endpoint returned status %d for %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
