package file

import (
	"bytes"
	"context"
	"image"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/adverant/mrkr-core/internal/cloudsession"
	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
)

// objectStoreDirectoryContentType is the content-type S3-compatible
// stores use to mark a zero-byte key as a folder placeholder.
const objectStoreDirectoryContentType = "application/x-directory"

// S3Config is the resolved configuration for the ObjectStore variant.
// Every field is expected to already have had {{ENV_VAR}} placeholders
// resolved via cloudsession.ResolveConfig.
type S3Config struct {
	Bucket      string
	RootPath    string
	PDFDPI      int
	ImageFormat string
}

// S3Provider reads files from an S3-compatible object store, scoped to
// one key for its lifetime. Credentials are refreshed lazily through the
// shared Cloud Session.
type S3Provider struct {
	cfg     S3Config
	path    string
	session *cloudsession.Session
	client  *s3.Client
}

// NewObjectStoreFactory returns a Factory for the ObjectStore variant
// backed by the given shared Cloud Session.
func NewObjectStoreFactory(cfg S3Config, session *cloudsession.Session) Factory {
	if cfg.PDFDPI == 0 {
		cfg.PDFDPI = 200
	}
	if cfg.ImageFormat == "" {
		cfg.ImageFormat = "JPEG"
	}
	return func(ctx context.Context, p string) (Provider, error) {
		return &S3Provider{
			cfg:     cfg,
			path:    strings.Trim(p, "/"),
			session: session,
		}, nil
	}
}

func (p *S3Provider) key() string {
	return path.Join(strings.Trim(p.cfg.RootPath, "/"), p.path)
}

func (p *S3Provider) refresh(ctx context.Context) error {
	if p.client != nil {
		return nil
	}
	client, err := p.session.S3Client(ctx)
	if err != nil {
		return err
	}
	p.client = client
	return nil
}

func (p *S3Provider) headContentType(ctx context.Context, key string) (string, bool, error) {
	if err := p.refresh(ctx); err != nil {
		return "", false, err
	}

	out, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", false, nil // not found is not an error here, just "absent"
	}

	return aws.ToString(out.ContentType), true, nil
}

func (p *S3Provider) IsFile(ctx context.Context) (bool, error) {
	contentType, found, err := p.headContentType(ctx, p.key())
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return !strings.HasPrefix(strings.ToLower(contentType), objectStoreDirectoryContentType), nil
}

func (p *S3Provider) IsFolder(ctx context.Context) (bool, error) {
	folderKey := strings.TrimSuffix(p.key(), "/") + "/"
	contentType, found, err := p.headContentType(ctx, folderKey)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return strings.HasPrefix(strings.ToLower(contentType), objectStoreDirectoryContentType), nil
}

func (p *S3Provider) List(ctx context.Context) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		if err := p.refresh(ctx); err != nil {
			errc <- err
			return
		}

		prefix := strings.TrimSuffix(p.key(), "/") + "/"

		var continuationToken *string
		for {
			page, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(p.cfg.Bucket),
				Prefix:            aws.String(prefix),
				ContinuationToken: continuationToken,
			})
			if err != nil {
				errc <- mrkrerrors.NewIOError(p.path, err)
				return
			}

			for _, obj := range page.Contents {
				key := aws.ToString(obj.Key)
				if strings.HasSuffix(key, "/") {
					continue
				}
				rel := strings.TrimPrefix(key, prefix)
				select {
				case out <- rel:
				case <-ctx.Done():
					return
				}
			}

			if page.IsTruncated == nil || !*page.IsTruncated {
				return
			}
			continuationToken = page.NextContinuationToken
		}
	}()

	return out, errc
}

func (p *S3Provider) Read(ctx context.Context, chunkSize int) (<-chan []byte, <-chan error) {
	out := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		if err := p.refresh(ctx); err != nil {
			errc <- err
			return
		}

		obj, err := p.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(p.cfg.Bucket),
			Key:    aws.String(p.key()),
		})
		if err != nil {
			errc <- mrkrerrors.NewIOError(p.path, err)
			return
		}
		defer obj.Body.Close()

		if chunkSize <= 0 {
			data, err := io.ReadAll(obj.Body)
			if err != nil {
				errc <- mrkrerrors.NewIOError(p.path, err)
				return
			}
			select {
			case out <- data:
			case <-ctx.Done():
			}
			return
		}

		buf := make([]byte, chunkSize)
		for {
			n, err := obj.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				errc <- mrkrerrors.NewIOError(p.path, err)
				return
			}
		}
	}()

	return out, errc
}

func (p *S3Provider) ReadAsImages(ctx context.Context, page int) ([]PageImage, error) {
	if err := p.refresh(ctx); err != nil {
		return nil, err
	}

	obj, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(p.key()),
	})
	if err != nil {
		return nil, mrkrerrors.NewIOError(p.path, err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, mrkrerrors.NewIOError(p.path, err)
	}

	ext := strings.ToLower(path.Ext(p.path))
	if ext == ".pdf" {
		return rasterizePDFBytes(data, p.cfg.PDFDPI, page)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, mrkrerrors.NewDecodeError(p.path, err)
	}

	return []PageImage{{Page: 1, Image: img}}, nil
}

func (p *S3Provider) ReadAsBase64Images(ctx context.Context, page int) ([]PageContent, error) {
	images, err := p.ReadAsImages(ctx, page)
	if err != nil {
		return nil, err
	}
	return encodeBase64(images, p.cfg.ImageFormat)
}

func (p *S3Provider) Close() error {
	return nil
}
