package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Options configures the client built for s3:// output roots.
type S3Options struct {
	Region    string `yaml:"region" json:"region"`
	Endpoint  string `yaml:"endpoint" json:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style" json:"path_style"`
}

// S3Client is the subset of the S3 API the store calls. *s3.Client
// satisfies it.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// NewS3Client builds an S3 client from options and the standard AWS_*
// credential variables. Endpoint and PathStyle cover MinIO and similar.
func NewS3Client(_ context.Context, options S3Options) (*s3.Client, error) {
	region := options.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	credentials := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
		if accessKey == "" || secretKey == "" {
			return aws.Credentials{}, errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for s3 output")
		}
		return aws.Credentials{
			AccessKeyID:     accessKey,
			SecretAccessKey: secretKey,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}, nil
	})
	clientOptions := s3.Options{
		Region:       region,
		Credentials:  aws.NewCredentialsCache(credentials),
		UsePathStyle: options.PathStyle,
	}
	if options.Endpoint != "" {
		clientOptions.BaseEndpoint = aws.String(options.Endpoint)
	}
	return s3.New(clientOptions), nil
}

// S3Store keeps output objects under bucket/prefix.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

func NewS3(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (store *S3Store) key(name string) string {
	if store.prefix == "" {
		return name
	}
	return path.Join(store.prefix, name)
}

func (store *S3Store) Location(name string) string {
	return "s3://" + store.bucket + "/" + store.key(name)
}

func (store *S3Store) Read(ctx context.Context, name string) (io.ReadCloser, error) {
	output, err := store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(store.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("read %s: %w", store.Location(name), os.ErrNotExist)
		}
		return nil, err
	}
	return output.Body, nil
}

// Write buffers the object and uploads it with one PutObject on Close, so
// the body is seekable for request signing and nothing appears on failure.
func (store *S3Store) Write(ctx context.Context, name string) (io.WriteCloser, error) {
	return &s3Upload{ctx: ctx, store: store, key: store.key(name)}, nil
}

func (store *S3Store) Delete(ctx context.Context, name string) error {
	_, err := store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(store.key(name)),
	})
	return err
}

func (store *S3Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := store.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(store.key(name)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (store *S3Store) List(ctx context.Context, directory string) ([]string, error) {
	root := ""
	if store.prefix != "" {
		root = path.Clean(store.prefix) + "/"
	}
	prefix := root
	if trimmed := strings.Trim(directory, "/"); trimmed != "" {
		prefix = store.key(trimmed) + "/"
	}
	paths := []string{}
	pages := s3.NewListObjectsV2Paginator(store.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(store.bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", store.Location(directory), err)
		}
		for _, object := range page.Contents {
			paths = append(paths, strings.TrimPrefix(aws.ToString(object.Key), root))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

type s3Upload struct {
	ctx    context.Context
	store  *S3Store
	key    string
	buffer bytes.Buffer
	closed bool
}

func (upload *s3Upload) Write(payload []byte) (int, error) {
	if upload.closed {
		return 0, errors.New("write to closed upload")
	}
	return upload.buffer.Write(payload)
}

func (upload *s3Upload) Close() error {
	if upload.closed {
		return nil
	}
	upload.closed = true
	_, err := upload.store.client.PutObject(upload.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(upload.store.bucket),
		Key:           aws.String(upload.key),
		Body:          bytes.NewReader(upload.buffer.Bytes()),
		ContentLength: aws.Int64(int64(upload.buffer.Len())),
	})
	return err
}

// Abort drops the buffered body without uploading.
func (upload *s3Upload) Abort(error) error {
	upload.closed = true
	upload.buffer.Reset()
	return nil
}

func isNotFound(err error) bool {
	var apiError smithy.APIError
	if !errors.As(err, &apiError) {
		return false
	}
	switch apiError.ErrorCode() {
	case "NotFound", "NoSuchKey":
		return true
	}
	return false
}

var (
	_ FileStore = (*S3Store)(nil)
	_ Aborter   = (*s3Upload)(nil)
)
