// Package providers selects the File Provider and OCR Provider variant a
// project is configured to use. Registration is by the `type`
// discriminator in project config — a closed, tagged set, never open
// plugin discovery.
package providers

import (
	"context"
	"fmt"

	"github.com/adverant/mrkr-core/internal/cloudsession"
	"github.com/adverant/mrkr-core/internal/model"
	"github.com/adverant/mrkr-core/internal/providers/file"
	"github.com/adverant/mrkr-core/internal/providers/ocr"
)

// FileProvider resolves cfg's {{ENV_VAR}} placeholders and returns a
// file.Factory for the configured variant.
func FileProvider(ctx context.Context, cfg model.FileProviderConfig, root string, session *cloudsession.Session) (file.Factory, error) {
	imageFormat, err := cloudsession.ResolveConfig(cfg.ImageFormat)
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case model.FileProviderLocal:
		resolvedPath, err := cloudsession.ResolveConfig(cfg.Path)
		if err != nil {
			return nil, err
		}
		return file.NewLocalFactory(file.LocalConfig{
			Root:        resolvedPath,
			PDFDPI:      defaultInt(cfg.PDFDPI, 200),
			ImageFormat: defaultString(imageFormat, "JPEG"),
		}), nil

	case model.FileProviderObjectStore:
		bucket, err := cloudsession.ResolveConfig(cfg.AWSBucketName)
		if err != nil {
			return nil, err
		}
		path, err := cloudsession.ResolveConfig(cfg.Path)
		if err != nil {
			return nil, err
		}
		return file.NewObjectStoreFactory(file.S3Config{
			Bucket:      bucket,
			RootPath:    path,
			PDFDPI:      defaultInt(cfg.PDFDPI, 200),
			ImageFormat: defaultString(imageFormat, "JPEG"),
		}, session), nil

	default:
		return nil, fmt.Errorf("unknown file_provider.type %q", cfg.Type)
	}
}

// OcrProvider resolves cfg's {{ENV_VAR}} placeholders and returns an
// ocr.Factory for the configured variant.
func OcrProvider(ctx context.Context, cfg model.OcrProviderConfig, tesseractPath string, session *cloudsession.Session) (ocr.Factory, error) {
	switch cfg.Type {
	case model.OcrProviderLocal:
		language, err := cloudsession.ResolveConfig(cfg.Language)
		if err != nil {
			return nil, err
		}
		return ocr.NewTesseractFactory(ocr.TesseractConfig{
			Language:      defaultString(language, "eng"),
			TesseractPath: tesseractPath,
		}), nil

	case model.OcrProviderLayout:
		return ocr.NewLayoutFactory(session), nil

	default:
		return nil, fmt.Errorf("unknown ocr_provider.type %q", cfg.Type)
	}
}

// CloudSessionFor builds a Cloud Session from a resolved AWS-shaped
// config block, used by both provider families when their variant needs
// assumed-role credentials.
func CloudSessionFor(accessKeyID, secretAccessKey, region, accountID, roleName string) (*cloudsession.Session, error) {
	resolvedAccessKey, err := cloudsession.ResolveConfig(accessKeyID)
	if err != nil {
		return nil, err
	}
	resolvedSecret, err := cloudsession.ResolveConfig(secretAccessKey)
	if err != nil {
		return nil, err
	}
	resolvedRegion, err := cloudsession.ResolveConfig(region)
	if err != nil {
		return nil, err
	}
	resolvedAccount, err := cloudsession.ResolveConfig(accountID)
	if err != nil {
		return nil, err
	}
	resolvedRole, err := cloudsession.ResolveConfig(roleName)
	if err != nil {
		return nil, err
	}

	return cloudsession.New(cloudsession.Config{
		AccessKeyID:     resolvedAccessKey,
		SecretAccessKey: resolvedSecret,
		Region:          resolvedRegion,
		AccountID:       resolvedAccount,
		RoleName:        resolvedRole,
	}), nil
}

// Bundle is the pair of provider factories resolved for one project.
type Bundle struct {
	File file.Factory
	Ocr  ocr.Factory
}

// Resolve builds the File Provider and OCR Provider factories for a
// project's configuration, sharing a single Cloud Session between them
// when either variant needs assumed-role AWS credentials.
func Resolve(ctx context.Context, cfg model.ProjectConfig, root, tesseractPath string) (Bundle, error) {
	var session *cloudsession.Session

	needsSession := cfg.FileProvider.Type == model.FileProviderObjectStore ||
		cfg.OcrProvider.Type == model.OcrProviderLayout

	if needsSession {
		accessKeyID, secret, region, account, role := awsFields(cfg)
		s, err := CloudSessionFor(accessKeyID, secret, region, account, role)
		if err != nil {
			return Bundle{}, err
		}
		session = s
	}

	fileFactory, err := FileProvider(ctx, cfg.FileProvider, root, session)
	if err != nil {
		return Bundle{}, err
	}

	ocrFactory, err := OcrProvider(ctx, cfg.OcrProvider, tesseractPath, session)
	if err != nil {
		return Bundle{}, err
	}

	return Bundle{File: fileFactory, Ocr: ocrFactory}, nil
}

// awsFields prefers the File Provider's AWS block and falls back to the
// OCR Provider's, since a project only ever needs one assumed-role
// identity shared by whichever variants require it.
func awsFields(cfg model.ProjectConfig) (accessKeyID, secret, region, account, role string) {
	if cfg.FileProvider.Type == model.FileProviderObjectStore {
		return cfg.FileProvider.AWSAccessKeyID, cfg.FileProvider.AWSSecretAccessKey,
			cfg.FileProvider.AWSRegionName, cfg.FileProvider.AWSAccountID, cfg.FileProvider.AWSRoleName
	}
	return cfg.OcrProvider.AWSAccessKeyID, cfg.OcrProvider.AWSSecretAccessKey,
		cfg.OcrProvider.AWSRegionName, cfg.OcrProvider.AWSAccountID, cfg.OcrProvider.AWSRoleName
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
