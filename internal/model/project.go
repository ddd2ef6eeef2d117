package model

import "time"

// FileProviderType discriminates which File Provider variant a project
// uses. Providers are a closed, tagged set — never open polymorphism.
type FileProviderType string

const (
	FileProviderLocal       FileProviderType = "local"
	FileProviderObjectStore FileProviderType = "s3"
)

// OcrProviderType discriminates which OCR Provider variant a project uses.
type OcrProviderType string

const (
	OcrProviderLocal  OcrProviderType = "tesseract"
	OcrProviderLayout OcrProviderType = "textract"
)

// FileProviderConfig is the provider-specific configuration block. Every
// string field may contain a `{{ENV_VAR}}` placeholder resolved through
// the Cloud Session resolver before use.
type FileProviderConfig struct {
	Type FileProviderType `json:"type"`

	Path        string `json:"path"`
	PDFDPI      int    `json:"pdf_dpi,omitempty"`
	ImageFormat string `json:"image_format,omitempty"`

	// ObjectStore-only fields.
	AWSAccessKeyID     string `json:"aws_access_key_id,omitempty"`
	AWSSecretAccessKey string `json:"aws_secret_access_key,omitempty"`
	AWSRegionName      string `json:"aws_region_name,omitempty"`
	AWSAccountID       string `json:"aws_account_id,omitempty"`
	AWSRoleName        string `json:"aws_role_name,omitempty"`
	AWSBucketName      string `json:"aws_bucket_name,omitempty"`
}

// OcrProviderConfig is the provider-specific OCR configuration block.
type OcrProviderConfig struct {
	Type OcrProviderType `json:"type"`

	Language string `json:"language,omitempty"` // tesseract

	// LayoutOCR (textract-shaped) fields, resolved the same way as
	// FileProviderConfig's AWS fields.
	AWSAccessKeyID     string `json:"aws_access_key_id,omitempty"`
	AWSSecretAccessKey string `json:"aws_secret_access_key,omitempty"`
	AWSRegionName      string `json:"aws_region_name,omitempty"`
	AWSAccountID       string `json:"aws_account_id,omitempty"`
	AWSRoleName        string `json:"aws_role_name,omitempty"`
}

// ProjectConfig is the JSON blob stored in project.config.
type ProjectConfig struct {
	LabelDefinitions []LabelDefinition  `json:"label_definitions"`
	FileProvider     FileProviderConfig `json:"file_provider"`
	OcrProvider      OcrProviderConfig  `json:"ocr_provider"`
}

// Project is the top-level container for a set of documents sharing one
// provider/label configuration.
type Project struct {
	ID      int64         `json:"id"`
	Name    string        `json:"name"`
	Created time.Time     `json:"created"`
	Updated time.Time     `json:"updated"`
	Config  ProjectConfig `json:"config"`
}

// ProjectStatusCounts is the project aggregate status: a count of
// documents in each status bucket.
type ProjectStatusCounts struct {
	Processing int64 `json:"processing"`
	Open       int64 `json:"open"`
	Review     int64 `json:"review"`
	Done       int64 `json:"done"`
}
