package apis

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Folders used for the platform's image assets.
const (
	FolderProfilePictures      = "Profile Pictures"
	FolderCommunityIcons       = "Community Icons"
	FolderCommunityBackgrounds = "Community Backgrounds"
)

// Cloudinary wraps image upload and cleanup. Configured from the
// CLOUDINARY_URL environment variable.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary() (*Cloudinary, error) {
	cld, err := cloudinary.New()
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

// UploadImage stores the image in the given folder and returns its secure
// delivery URL.
func (c *Cloudinary) UploadImage(ctx context.Context, file io.Reader, folder string) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

// DestroyImage deletes a previously uploaded image, addressed by its
// delivery URL. Default assets are left alone.
func (c *Cloudinary) DestroyImage(ctx context.Context, imgURL, folder string) error {
	publicID, ok := publicIDFromURL(imgURL, folder)
	if !ok {
		return nil
	}
	_, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	return nil
}

// publicIDFromURL recovers "<folder>/<name>" from a delivery URL like
// https://res.cloudinary.com/<cloud>/image/upload/v123/<folder>/<name>.jpg.
// Reports false for URLs outside the folder, including the default assets.
func publicIDFromURL(imgURL, folder string) (string, bool) {
	parsed, err := url.Parse(imgURL)
	if err != nil {
		return "", false
	}
	unescaped, err := url.PathUnescape(parsed.Path)
	if err != nil {
		return "", false
	}
	dir, file := path.Split(unescaped)
	if !strings.HasSuffix(strings.TrimSuffix(dir, "/"), folder) {
		return "", false
	}
	name := strings.TrimSuffix(file, path.Ext(file))
	if name == "" || name == "default" {
		return "", false
	}
	return folder + "/" + name, true
}
