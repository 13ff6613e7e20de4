package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/flashgenius/internal/client/content"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/filex"
	"github.com/google/uuid"
)

const refScheme = "s3://"

// ErrNotConfigured is returned when no bucket is configured.
var ErrNotConfigured = errors.New("image storage is not configured")

// Settings locate the bucket. Endpoint is only needed for S3-compatible
// servers such as MinIO.
type Settings struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// objectAPI is the part of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Store uploads and downloads card images.
type S3Store struct {
	api     objectAPI
	bucket  string
	maxSize int64
	now     func() time.Time
}

// NewS3Store builds a store from st. Static credentials are used when an
// access key is given, otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, st Settings) (*S3Store, error) {
	if st.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(st.Region)}
	if st.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(st.AccessKey, st.SecretKey, "")))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if st.Endpoint != "" {
			o.BaseEndpoint = aws.String(st.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newStore(api, st.Bucket), nil
}

func newStore(api objectAPI, bucket string) *S3Store {
	return &S3Store{api: api, bucket: bucket, maxSize: common.MaxFileSizeBytes, now: time.Now}
}

func (s *S3Store) storageKey() string {
	d := s.now()
	return fmt.Sprintf("images/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Put uploads an image and returns its ref. name is only used to detect the
// content type.
func (s *S3Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	if int64(len(data)) > s.maxSize {
		return "", fmt.Errorf("%w: %w: image is %d bytes, limit %d", common.ErrValidation, filex.ErrTooLarge, len(data), s.maxSize)
	}
	mime, err := content.DetectMIME(name, data)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: %s is not an image", common.ErrValidation, name)
	}

	key := s.storageKey()
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mime),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload image: %w", common.ErrTransport, err)
	}
	return refScheme + s.bucket + "/" + key, nil
}

// Get downloads the image behind ref and returns its bytes and content type.
func (s *S3Store) Get(ctx context.Context, ref string) ([]byte, string, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return nil, "", err
	}

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: download image: %w", common.ErrTransport, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read image: %w", common.ErrTransport, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, "", fmt.Errorf("%w: %w: image exceeds %d bytes", common.ErrContent, filex.ErrTooLarge, s.maxSize)
	}
	return data, aws.ToString(out.ContentType), nil
}

// ParseRef splits an s3://bucket/key ref.
func ParseRef(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, refScheme)
	if ok {
		bucket, key, ok = strings.Cut(rest, "/")
	}
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: invalid image ref %q", common.ErrValidation, ref)
	}
	return bucket, key, nil
}
