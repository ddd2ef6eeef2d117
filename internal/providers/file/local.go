package file

import (
	"bufio"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
)

// LocalConfig is the resolved configuration for the Local variant.
type LocalConfig struct {
	Root        string // provider root directory
	PDFDPI      int
	ImageFormat string
}

// LocalProvider reads files from a local filesystem root, scoped to one
// path under that root for its lifetime.
type LocalProvider struct {
	cfg  LocalConfig
	path string // cleaned, relative to cfg.Root
}

// NewLocalFactory returns a Factory for the Local variant rooted at cfg.Root.
func NewLocalFactory(cfg LocalConfig) Factory {
	if cfg.PDFDPI == 0 {
		cfg.PDFDPI = 200
	}
	if cfg.ImageFormat == "" {
		cfg.ImageFormat = "JPEG"
	}
	return func(ctx context.Context, path string) (Provider, error) {
		return &LocalProvider{
			cfg:  cfg,
			path: strings.Trim(path, "/"),
		}, nil
	}
}

func (p *LocalProvider) fullPath() string {
	return filepath.Join(p.cfg.Root, p.path)
}

func (p *LocalProvider) IsFile(ctx context.Context) (bool, error) {
	info, err := os.Stat(p.fullPath())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, mrkrerrors.NewIOError(p.path, err)
	}
	return !info.IsDir(), nil
}

func (p *LocalProvider) IsFolder(ctx context.Context) (bool, error) {
	info, err := os.Stat(p.fullPath())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, mrkrerrors.NewIOError(p.path, err)
	}
	return info.IsDir(), nil
}

func (p *LocalProvider) List(ctx context.Context) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		root := p.fullPath()
		entries, err := os.ReadDir(root)
		if err != nil {
			if !os.IsNotExist(err) {
				errc <- mrkrerrors.NewIOError(p.path, err)
			}
			return
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			select {
			case out <- entry.Name():
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return out, errc
}

func (p *LocalProvider) Read(ctx context.Context, chunkSize int) (<-chan []byte, <-chan error) {
	out := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		f, err := os.Open(p.fullPath())
		if os.IsNotExist(err) {
			errc <- mrkrerrors.NewNotFound("file", p.path)
			return
		}
		if err != nil {
			errc <- mrkrerrors.NewIOError(p.path, err)
			return
		}
		defer f.Close()

		if chunkSize <= 0 {
			data, err := io.ReadAll(f)
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

		reader := bufio.NewReader(f)
		buf := make([]byte, chunkSize)
		for {
			n, err := reader.Read(buf)
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

func (p *LocalProvider) ReadAsImages(ctx context.Context, page int) ([]PageImage, error) {
	ext := strings.ToLower(filepath.Ext(p.path))

	if ext == ".pdf" {
		return rasterizePDF(p.fullPath(), p.cfg.PDFDPI, page)
	}

	f, err := os.Open(p.fullPath())
	if os.IsNotExist(err) {
		return nil, mrkrerrors.NewNotFound("file", p.path)
	}
	if err != nil {
		return nil, mrkrerrors.NewIOError(p.path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, mrkrerrors.NewDecodeError(p.path, err)
	}

	return []PageImage{{Page: 1, Image: img}}, nil
}

func (p *LocalProvider) ReadAsBase64Images(ctx context.Context, page int) ([]PageContent, error) {
	images, err := p.ReadAsImages(ctx, page)
	if err != nil {
		return nil, err
	}
	return encodeBase64(images, p.cfg.ImageFormat)
}

func (p *LocalProvider) Close() error {
	return nil
}
