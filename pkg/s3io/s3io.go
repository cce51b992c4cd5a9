// Package s3io moves sort inputs and outputs between S3 and local disk.
//
// The sorter itself only works on local files. An s3:// input is staged into
// a local temp file before sorting and a sorted output is published to its
// s3:// destination after the local rename succeeds.
package s3io

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/spf13/afero"

	"github.com/eunmann/linesort/pkg/humanfmt"
	"github.com/eunmann/linesort/pkg/logging"
)

const uriScheme = "s3://"

// ErrMissingKey is returned when an object URI names only a bucket.
var ErrMissingKey = errors.New("s3 uri has no object key")

// ErrNoObject is returned by Stage when the object does not exist.
var ErrNoObject = errors.New("s3 object does not exist")

// API is the part of *s3.Client used for transfers.
type API interface {
	manager.DownloadAPIClient
	manager.UploadAPIClient
}

// TransferConfig tunes the multipart transfer managers.
type TransferConfig struct {
	// Concurrency is the number of parts in flight. Default: NumCPU in [4, 16].
	Concurrency int
	// PartSize is the size of each ranged GET or upload part. Default: 16MiB.
	PartSize int64
}

// DefaultTransferConfig returns defaults sized for the current machine.
func DefaultTransferConfig() TransferConfig {
	return TransferConfig{
		Concurrency: min(max(runtime.NumCPU(), 4), 16),
		PartSize:    16 * humanfmt.MiB,
	}
}

// Client stages objects to local files and publishes local files as objects.
type Client struct {
	downloader *manager.Downloader
	uploader   *manager.Uploader
	cfg        TransferConfig
}

// NewClient creates a client from the default AWS configuration chain.
func NewClient(ctx context.Context, cfg TransferConfig) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewClientWithAPI(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewClientWithAPI creates a client over an existing S3 API implementation.
func NewClientWithAPI(api API, cfg TransferConfig) *Client {
	def := DefaultTransferConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.PartSize < manager.MinUploadPartSize {
		cfg.PartSize = def.PartSize
	}

	return &Client{
		downloader: manager.NewDownloader(api, func(d *manager.Downloader) {
			d.Concurrency = cfg.Concurrency
			d.PartSize = cfg.PartSize
			d.BufferProvider = manager.NewPooledBufferedWriterReadFromProvider(int(cfg.PartSize))
		}),
		uploader: manager.NewUploader(api, func(u *manager.Uploader) {
			u.Concurrency = cfg.Concurrency
			u.PartSize = cfg.PartSize
		}),
		cfg: cfg,
	}
}

// IsURI reports whether s names an S3 location.
func IsURI(s string) bool {
	return strings.HasPrefix(s, uriScheme)
}

// ParseURI splits s3://bucket/key into its parts. The key may be empty.
func ParseURI(uri string) (bucket, key string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("invalid S3 URI: must start with %s", uriScheme)
	}

	rest := strings.TrimPrefix(uri, uriScheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", errors.New("invalid S3 URI: bucket name required")
	}
	return bucket, key, nil
}

func parseObjectURI(uri string) (bucket, key string, err error) {
	bucket, key, err = ParseURI(uri)
	if err != nil {
		return "", "", err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%s: %w", uri, ErrMissingKey)
	}
	return bucket, key, nil
}

// Stage downloads the object at uri into a new file under dir and returns its
// path. The caller owns the file. On failure nothing is left behind.
func (c *Client) Stage(ctx context.Context, fs afero.Fs, uri, dir string) (string, error) {
	bucket, key, err := parseObjectURI(uri)
	if err != nil {
		return "", err
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}

	f, err := afero.TempFile(fs, dir, "stage-*-"+path.Base(key))
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	localPath := f.Name()

	start := time.Now()
	n, err := c.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		_ = fs.Remove(localPath)
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %s: %w", ErrNoObject, uri, err)
		}
		return "", fmt.Errorf("download %s: %w", uri, err)
	}

	logging.L().Info().
		Str("uri", uri).
		Str("path", localPath).
		Int64("bytes", n).
		Dur("elapsed", time.Since(start)).
		Str("throughput", humanfmt.Throughput(n, time.Since(start))).
		Msg("staged S3 input")
	return localPath, nil
}

// Publish uploads the file at localPath to uri and returns the bytes sent.
func (c *Client) Publish(ctx context.Context, fs afero.Fs, localPath, uri string) (int64, error) {
	bucket, key, err := parseObjectURI(uri)
	if err != nil {
		return 0, err
	}

	f, err := fs.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", localPath, err)
	}

	start := time.Now()
	if _, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return 0, fmt.Errorf("upload %s: %w", uri, err)
	}

	logging.L().Info().
		Str("uri", uri).
		Int64("bytes", info.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("published sorted output")
	return info.Size(), nil
}

// isNotFound reports whether err is S3 saying the object is not there,
// either as a modeled NoSuchKey or a bare 404 from a ranged GET.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
