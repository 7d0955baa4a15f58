package folders

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMime = "application/vnd.google-apps.folder"

// Drive creates folders under a parent folder in Google Drive.
type Drive struct {
	service  *drive.Service
	parentID string
}

func NewDrive(ctx context.Context, credentialsFile, parentID string, opts ...option.ClientOption) (*Drive, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	if parentID == "" {
		parentID = "root"
	}
	return &Drive{service: service, parentID: parentID}, nil
}

func (d *Drive) Name() string { return "drive" }

// EnsureFolders walks every path segment, reusing folders found by name.
func (d *Drive) EnsureFolders(ctx context.Context, paths []string) (int, error) {
	ids := map[string]string{"": d.parentID}
	created := 0
	for _, p := range paths {
		parent := ""
		for _, segment := range strings.Split(p, "/") {
			current := segment
			if parent != "" {
				current = parent + "/" + segment
			}
			if _, ok := ids[current]; !ok {
				id, made, err := d.ensure(ctx, segment, ids[parent])
				if err != nil {
					return created, fmt.Errorf("folder %s: %w", current, err)
				}
				if made {
					created++
				}
				ids[current] = id
			}
			parent = current
		}
	}
	return created, nil
}

func (d *Drive) ensure(ctx context.Context, name, parentID string) (string, bool, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), folderMime, escapeQuery(parentID))
	list, err := d.service.Files.List().Q(q).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", false, err
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, false, nil
	}
	file, err := d.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMime,
		Parents:  []string{parentID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", false, err
	}
	return file.Id, true, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
