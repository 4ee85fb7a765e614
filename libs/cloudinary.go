package libs

import (
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
)

const productImageTransformation = "c_fill,g_auto,h_600,w_600/f_auto/q_auto"

// ImageURLs turns stored Cloudinary public ids into delivery URLs.
type ImageURLs struct {
	cld *cloudinary.Cloudinary
}

// NewImageURLs prefers the discrete credentials and falls back to CLOUDINARY_URL.
func NewImageURLs(cloudinaryURL, cloudName, apiKey, apiSecret string) (*ImageURLs, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case cloudName != "" && apiKey != "" && apiSecret != "":
		cld, err = cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	case cloudinaryURL != "":
		cld, err = cloudinary.NewFromURL(cloudinaryURL)
	default:
		return nil, fmt.Errorf("cloudinary environment variables not set")
	}
	if err != nil {
		return nil, fmt.Errorf("cloudinary init fail: %w", err)
	}
	cld.Config.URL.Secure = true
	return &ImageURLs{cld: cld}, nil
}

// ProductImageURL returns "" for products without an image.
func (u *ImageURLs) ProductImageURL(publicID string) (string, error) {
	if publicID == "" {
		return "", nil
	}
	img, err := u.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("cloudinary image %s: %w", publicID, err)
	}
	img.Transformation = productImageTransformation
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("cloudinary url %s: %w", publicID, err)
	}
	return url, nil
}
