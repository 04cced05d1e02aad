package shop

import (
	"context"
	"encoding/base64"
	"net/http"
)

// ImageStore turns an uploaded image file into the opaque string
// stored on the product record.
type ImageStore interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
}

// InlineImages encodes the upload as a data URL, so the image travels
// inside the product record itself.
type InlineImages struct{}

func (InlineImages) Save(_ context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
