package file

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type FileUploader struct {
	cloud_name string
	api_key    string
	api_secret string
}

func New(cloud_name, api_key, api_secret string) *FileUploader {
	return &FileUploader{
		cloud_name: cloud_name,
		api_key:    api_key,
		api_secret: api_secret,
	}
}

// Upload pushes the file content to Cloudinary and returns the public URL.
func (f *FileUploader) Upload(ctx context.Context, content io.Reader, folder string) (string, error) {
	cld, err := cloudinary.NewFromParams(f.cloud_name, f.api_key, f.api_secret)
	if err != nil {
		return "", err
	}

	uploadResult, err := cld.Upload.Upload(ctx, content, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
