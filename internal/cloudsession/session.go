// Package cloudsession manages assumed-role AWS credentials shared across
// the ObjectStore File Provider and the LayoutOCR Provider, and resolves
// `{{ENV_VAR}}` placeholders found in project configuration.
package cloudsession

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/textract"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
)

// placeholderPattern matches `{{NAME}}` placeholders in config strings.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// sessionName is the fixed AssumeRole session name, preserved from the
// original implementation.
const sessionName = "MrkrSession"

// Config identifies the account/role/region this session assumes into.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	AccountID       string
	RoleName        string
}

// Session holds the most recently fetched temporary credentials for one
// (account, role) pair and vends AWS service clients built from them.
// Refresh is mutex-guarded; a still-valid check runs after the lock is
// acquired so concurrent callers never pay for a redundant AssumeRole.
type Session struct {
	mu          sync.Mutex
	cfg         Config
	credentials *aws.Credentials
	expiresAt   time.Time
}

// New creates a Session for the given already-resolved AWS config. Config
// string fields must be resolved via ResolveConfig before being passed in.
func New(cfg Config) *Session {
	return &Session{cfg: cfg}
}

// ResolveConfig substitutes every `{{ENV_VAR}}` placeholder in s with the
// corresponding process environment variable. An unresolved placeholder
// fails fast with ConfigResolutionError before any I/O is attempted.
func ResolveConfig(s string) (string, error) {
	var resolveErr error
	resolved := placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := os.LookupEnv(name)
		if !ok {
			if resolveErr == nil {
				resolveErr = mrkrerrors.NewConfigResolutionError(name)
			}
			return match
		}
		return value
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return resolved, nil
}

func (s *Session) stillValid() bool {
	return s.credentials != nil && time.Now().UTC().Before(s.expiresAt)
}

// Credentials returns the current temporary credentials, refreshing them
// via AssumeRole if they are absent or expired.
func (s *Session) Credentials(ctx context.Context) (aws.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stillValid() {
		return *s.credentials, nil
	}

	creds, expiresAt, err := s.assumeRole(ctx)
	if err != nil {
		return aws.Credentials{}, mrkrerrors.NewAuthError(err)
	}

	s.credentials = &creds
	s.expiresAt = expiresAt
	return creds, nil
}

func (s *Session) assumeRole(ctx context.Context) (aws.Credentials, time.Time, error) {
	baseCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     s.cfg.AccessKeyID,
				SecretAccessKey: s.cfg.SecretAccessKey,
			}, nil
		})),
	)
	if err != nil {
		return aws.Credentials{}, time.Time{}, fmt.Errorf("load aws config: %w", err)
	}

	stsClient := sts.NewFromConfig(baseCfg)

	roleArn := fmt.Sprintf("arn:aws:iam::%s:role/%s", s.cfg.AccountID, s.cfg.RoleName)

	out, err := stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleArn),
		RoleSessionName: aws.String(sessionName),
	})
	if err != nil {
		return aws.Credentials{}, time.Time{}, fmt.Errorf("assume role %s: %w", roleArn, err)
	}

	creds := aws.Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Expires:         *out.Credentials.Expiration,
	}

	return creds, *out.Credentials.Expiration, nil
}

func (s *Session) awsConfig(ctx context.Context) (aws.Config, error) {
	creds, err := s.Credentials(ctx)
	if err != nil {
		return aws.Config{}, err
	}

	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})),
	)
}

// S3Client vends an S3 client built from the session's current credentials.
func (s *Session) S3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := s.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// TextractClient vends a Textract client built from the session's current
// credentials.
func (s *Session) TextractClient(ctx context.Context) (*textract.Client, error) {
	cfg, err := s.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return textract.NewFromConfig(cfg), nil
}
