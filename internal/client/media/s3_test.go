package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/filex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

type object struct {
	data []byte
	mime string
}

type fakeS3 struct {
	objects map[string]object
	putErr  error
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]object{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = object{data: data, mime: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(o.data)),
		ContentType: aws.String(o.mime),
	}, nil
}

func newTestStore(api objectAPI) *S3Store {
	s := newStore(api, "cards")
	s.now = func() time.Time { return time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := newTestStore(fake)

	ref, err := store.Put(ctx, "cell.png", pngHeader)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "s3://cards/images/2024/3/7/"), ref)

	data, mime, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", mime)
}

func TestPut_SniffsUnknownExtension(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(fake)

	_, err := store.Put(context.Background(), "upload.bin", pngHeader)
	require.NoError(t, err)
	for _, o := range fake.objects {
		assert.Equal(t, "image/png", o.mime)
	}
}

func TestPut_Rejects(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want error
	}{
		{"text file", "notes.txt", []byte("hello"), common.ErrValidation},
		{"pdf", "paper.pdf", []byte("%PDF-1.4"), common.ErrValidation},
		{"unknown", "blob.xyz", []byte{0, 1, 2}, common.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeS3()
			_, err := newTestStore(fake).Put(context.Background(), tt.file, tt.data)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, fake.objects)
		})
	}
}

func TestPut_TooLarge(t *testing.T) {
	store := newTestStore(newFakeS3())
	store.maxSize = 4

	_, err := store.Put(context.Background(), "a.png", pngHeader)
	require.ErrorIs(t, err, common.ErrValidation)
	require.ErrorIs(t, err, filex.ErrTooLarge)
}

func TestPut_UploadError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("connection refused")

	_, err := newTestStore(fake).Put(context.Background(), "a.png", pngHeader)
	require.ErrorIs(t, err, common.ErrTransport)
}

func TestGet_Errors(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(fake)

	_, _, err := store.Get(context.Background(), "https://example.com/a.png")
	require.ErrorIs(t, err, common.ErrValidation)

	_, _, err = store.Get(context.Background(), "s3://cards/missing")
	require.ErrorIs(t, err, common.ErrTransport)

	fake.objects["cards/big"] = object{data: bytes.Repeat([]byte("x"), 10)}
	store.maxSize = 5
	_, _, err = store.Get(context.Background(), "s3://cards/big")
	require.ErrorIs(t, err, common.ErrContent)
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref       string
		bucket    string
		key       string
		wantError bool
	}{
		{ref: "s3://b/images/2024/1/2/x", bucket: "b", key: "images/2024/1/2/x"},
		{ref: "s3://b/", wantError: true},
		{ref: "s3:///k", wantError: true},
		{ref: "b/k", wantError: true},
		{ref: "", wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			bucket, key, err := ParseRef(tt.ref)
			if tt.wantError {
				require.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestNewS3Store_NotConfigured(t *testing.T) {
	_, err := NewS3Store(context.Background(), Settings{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewS3Store_AppliesSettings(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "eu-north-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		if lo.Credentials == nil {
			t.Fatalf("static credentials not applied")
		}
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		for _, fn := range optFns {
			fn(&opts)
		}
		return newFakeS3()
	}

	store, err := NewS3Store(context.Background(), Settings{
		Bucket:    "cards",
		Region:    "eu-north-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "minio",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "cards", store.bucket)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Store_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}

	_, err := NewS3Store(context.Background(), Settings{Bucket: "cards"})
	require.Error(t, err)
}
