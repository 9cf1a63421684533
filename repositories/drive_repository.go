// repositories/drive_repository.go
package repositories

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"inci.cards/configs"
	"inci.cards/configs/configsgoogle"
	"inci.cards/configs/configslog"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const folderMimeType = "application/vnd.google-apps.folder"

// PhotosFolderName is the per-card photo subfolder. Kept in Russian to match
// the folder names operators see in Drive.
const PhotosFolderName = "Фото"

// DriveFile is the subset of file metadata listing returns.
type DriveFile struct {
	ID       string
	Name     string
	MimeType string
}

// IDriveRepository is the Drive blob store: folders keyed by generated ids,
// files inside them.
type IDriveRepository interface {
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	EnsureUserFolder(ctx context.Context, userID string) (string, error)
	CreateCardFolder(ctx context.Context, cardFolderName, userFolderID string) (string, error)
	CreatePhotosFolder(ctx context.Context, cardFolderID string) (string, error)
	UploadFile(ctx context.Context, name string, data []byte, mimeType, folderID string) (string, error)
	RenameFolder(ctx context.Context, folderID, newName string) error
	TrashFile(ctx context.Context, fileID string) error
	ListFiles(ctx context.Context, folderID string) ([]DriveFile, error)
	GetFile(ctx context.Context, fileID string) ([]byte, string, error)
	FindFolderByName(ctx context.Context, name string) (string, error)

	FolderURL(folderID string) string
	FileURL(fileID string) string
}

// DriveRepository implements IDriveRepository. When a shared drive id is
// configured every call carries the shared-drive flags; this is the
// authoritative Drive-sharing mode (the my-drive-only variant is legacy).
type DriveRepository struct {
	svc            *drive.Service
	parentFolderID string
	sharedDriveID  string
}

// NewDriveRepository builds a DriveRepository on the shared Drive client.
func NewDriveRepository() IDriveRepository {
	cfg := configs.Get()
	return &DriveRepository{
		svc:            configsgoogle.GetDrive(),
		parentFolderID: cfg.GoogleDriveFolderID,
		sharedDriveID:  cfg.GoogleDriveSharedDriveID,
	}
}

func (r *DriveRepository) isSharedDrive() bool { return r.sharedDriveID != "" }

// CreateFolder creates a folder under parentID (root folder when empty).
func (r *DriveRepository) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	if parentID == "" {
		parentID = r.parentFolderID
	}
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}
	call := r.svc.Files.Create(meta).Fields("id, name, webViewLink").Context(ctx)
	if r.isSharedDrive() {
		call = call.SupportsAllDrives(true)
	}
	created, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("creating folder %q: %w", name, err)
	}
	return created.Id, nil
}

// EnsureUserFolder finds the user's folder under the root, creating it on
// first use. Lookup is by exact name, one round trip per call.
func (r *DriveRepository) EnsureUserFolder(ctx context.Context, userID string) (string, error) {
	existing, err := r.FindFolderByName(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return "", err
	}
	configslog.Log.Info("creating user folder", zap.String("userID", userID))
	return r.CreateFolder(ctx, userID, r.parentFolderID)
}

// CreateCardFolder creates the card folder inside the user folder. The name
// is "<cardId> <productName>" and must track the card's product name.
func (r *DriveRepository) CreateCardFolder(ctx context.Context, cardFolderName, userFolderID string) (string, error) {
	id, err := r.CreateFolder(ctx, cardFolderName, userFolderID)
	if err != nil {
		return "", err
	}
	configslog.Log.Info("card folder created", zap.String("name", cardFolderName))
	return id, nil
}

// CreatePhotosFolder creates the photo subfolder inside the card folder.
func (r *DriveRepository) CreatePhotosFolder(ctx context.Context, cardFolderID string) (string, error) {
	return r.CreateFolder(ctx, PhotosFolderName, cardFolderID)
}

// UploadFile stores the bytes as a file in the folder and returns its id.
func (r *DriveRepository) UploadFile(ctx context.Context, name string, data []byte, mimeType, folderID string) (string, error) {
	meta := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}
	call := r.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id, name, webViewLink").
		Context(ctx)
	if r.isSharedDrive() {
		call = call.SupportsAllDrives(true)
	}
	created, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("uploading file %q: %w", name, err)
	}
	return created.Id, nil
}

// RenameFolder renames a folder (or file) in place.
func (r *DriveRepository) RenameFolder(ctx context.Context, folderID, newName string) error {
	call := r.svc.Files.Update(folderID, &drive.File{Name: newName}).Context(ctx)
	if r.isSharedDrive() {
		call = call.SupportsAllDrives(true)
	}
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("renaming folder %s: %w", folderID, err)
	}
	configslog.Log.Info("folder renamed", zap.String("folderID", folderID), zap.String("name", newName))
	return nil
}

// TrashFile moves a file or folder to the trash. Used as the compensating
// action when card creation fails after the folder already exists.
func (r *DriveRepository) TrashFile(ctx context.Context, fileID string) error {
	call := r.svc.Files.Update(fileID, &drive.File{Trashed: true}).Context(ctx)
	if r.isSharedDrive() {
		call = call.SupportsAllDrives(true)
	}
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("trashing %s: %w", fileID, err)
	}
	return nil
}

// ListFiles lists the direct, non-trashed children of a folder.
func (r *DriveRepository) ListFiles(ctx context.Context, folderID string) ([]DriveFile, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)
	call := r.svc.Files.List().Q(query).Fields("files(id, name, mimeType)").Context(ctx)
	call = r.applyListScope(call)

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("listing folder %s: %w", folderID, err)
	}

	files := make([]DriveFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, DriveFile{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
	}
	return files, nil
}

// GetFile downloads a file's content and reports its MIME type.
func (r *DriveRepository) GetFile(ctx context.Context, fileID string) ([]byte, string, error) {
	metaCall := r.svc.Files.Get(fileID).Fields("mimeType").Context(ctx)
	if r.isSharedDrive() {
		metaCall = metaCall.SupportsAllDrives(true)
	}
	meta, err := metaCall.Do()
	if err != nil {
		return nil, "", fmt.Errorf("reading file metadata %s: %w", fileID, err)
	}

	dlCall := r.svc.Files.Get(fileID).Context(ctx)
	if r.isSharedDrive() {
		dlCall = dlCall.SupportsAllDrives(true)
	}
	resp, err := dlCall.Download()
	if err != nil {
		return nil, "", fmt.Errorf("downloading file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading file %s: %w", fileID, err)
	}
	return data, meta.MimeType, nil
}

// FindFolderByName looks a folder up by exact name under the root folder.
// Names containing quotes are escaped for the Drive query language.
func (r *DriveRepository) FindFolderByName(ctx context.Context, name string) (string, error) {
	escaped := strings.ReplaceAll(name, `'`, `\'`)
	query := fmt.Sprintf("mimeType='%s' and name='%s' and '%s' in parents and trashed=false",
		folderMimeType, escaped, r.parentFolderID)

	call := r.svc.Files.List().Q(query).Fields("files(id, name)").Context(ctx)
	call = r.applyListScope(call)

	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("finding folder %q: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return "", ErrNotFound
	}
	return resp.Files[0].Id, nil
}

// FolderURL builds the browser URL of a folder.
func (r *DriveRepository) FolderURL(folderID string) string {
	return "https://drive.google.com/drive/folders/" + folderID
}

// FileURL builds the browser URL of a file.
func (r *DriveRepository) FileURL(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view"
}

func (r *DriveRepository) applyListScope(call *drive.FilesListCall) *drive.FilesListCall {
	if r.isSharedDrive() {
		return call.
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Corpora("drive").
			DriveId(r.sharedDriveID)
	}
	return call.Spaces("drive")
}

var _ IDriveRepository = (*DriveRepository)(nil)
