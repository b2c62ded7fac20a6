package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shoe-market-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// imageExtensions maps the accepted upload content types to object key extensions
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
}

// ObjectPresigner signs S3 PUT requests
type ObjectPresigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ImageStorageConfig configures the listing image bucket
type ImageStorageConfig struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	Expiry    time.Duration
}

// ImageService hands out pre-signed upload URLs for listing images
type ImageService struct {
	presigner ObjectPresigner
	bucket    string
	region    string
	endpoint  string
	expiry    time.Duration
}

// NewImageService builds an S3 presign client from the given settings
func NewImageService(ctx context.Context, cfg ImageStorageConfig) (*ImageService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewImageServiceWithPresigner(s3.NewPresignClient(client), cfg), nil
}

// NewImageServiceWithPresigner creates an image service around an existing presigner
func NewImageServiceWithPresigner(presigner ObjectPresigner, cfg ImageStorageConfig) *ImageService {
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}
	return &ImageService{
		presigner: presigner,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		expiry:    expiry,
	}
}

// UploadRequest asks for a pre-signed listing image upload
type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType" validate:"required"`
}

// UploadResponse carries the pre-signed URL and the imageRef to store on the listing
type UploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ImageRef  string `json:"imageRef"`
	ExpiresIn int    `json:"expiresIn"`
}

// GetPreSignedURL returns an upload URL for a jpeg or png listing image; admins only
func (s *ImageService) GetPreSignedURL(ctx context.Context, req UploadRequest, claim models.Claim) (*UploadResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, models.NewValidationError("contentType", "only jpeg and png images are accepted")
	}
	if !claim.IsAdmin {
		return nil, fmt.Errorf("%w: only admins may upload listing images", models.ErrForbidden)
	}

	key := fmt.Sprintf("shoes/%s.%s", uuid.New().String(), ext)

	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		ImageRef:  s.objectURL(key),
		ExpiresIn: int(s.expiry.Seconds()),
	}, nil
}

// objectURL is path-style under a custom endpoint, matching how the client addresses it
func (s *ImageService) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
