package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shoe-market-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	input   *s3.PutObjectInput
	expires time.Duration
	err     error
}

func (p *fakePresigner) PresignPutObject(_ context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if p.err != nil {
		return nil, p.err
	}
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	p.input = params
	p.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://signed.example.com/" + aws.ToString(params.Key),
		Method: "PUT",
	}, nil
}

func newTestImageService(p *fakePresigner) *ImageService {
	return NewImageServiceWithPresigner(p, ImageStorageConfig{
		Region: "eu-west-1",
		Bucket: "shoe-images",
		Expiry: 10 * time.Minute,
	})
}

func TestGetPreSignedURL(t *testing.T) {
	presigner := &fakePresigner{}
	svc := newTestImageService(presigner)

	resp, err := svc.GetPreSignedURL(context.Background(), UploadRequest{
		Filename:    "runner.PNG",
		ContentType: "image/png",
	}, adminClaim)
	require.NoError(t, err)

	require.NotNil(t, presigner.input)
	key := aws.ToString(presigner.input.Key)
	assert.True(t, strings.HasPrefix(key, "shoes/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "shoe-images", aws.ToString(presigner.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(presigner.input.ContentType))
	assert.Equal(t, 10*time.Minute, presigner.expires)

	assert.Equal(t, "https://signed.example.com/"+key, resp.UploadURL)
	assert.Equal(t, "https://shoe-images.s3.eu-west-1.amazonaws.com/"+key, resp.ImageRef)
	assert.Equal(t, 600, resp.ExpiresIn)
}

func TestGetPreSignedURL_CustomEndpoint(t *testing.T) {
	svc := NewImageServiceWithPresigner(&fakePresigner{}, ImageStorageConfig{
		Region:   "us-east-1",
		Bucket:   "shoe-images",
		Endpoint: "http://localhost:9000/",
	})

	resp, err := svc.GetPreSignedURL(context.Background(), UploadRequest{ContentType: "image/jpeg"}, adminClaim)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.ImageRef, "http://localhost:9000/shoe-images/shoes/"), resp.ImageRef)
	assert.True(t, strings.HasSuffix(resp.ImageRef, ".jpg"))
	assert.Equal(t, 300, resp.ExpiresIn)
}

func TestGetPreSignedURL_Rejects(t *testing.T) {
	svc := newTestImageService(&fakePresigner{})
	ctx := context.Background()

	_, err := svc.GetPreSignedURL(ctx, UploadRequest{ContentType: "image/gif"}, adminClaim)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.GetPreSignedURL(ctx, UploadRequest{}, adminClaim)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.GetPreSignedURL(ctx, UploadRequest{ContentType: "image/jpeg"}, models.Claim{Subject: "u1"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	failing := newTestImageService(&fakePresigner{err: errors.New("no credentials")})
	_, err = failing.GetPreSignedURL(ctx, UploadRequest{ContentType: "image/jpeg"}, adminClaim)
	assert.Error(t, err)
}
