package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/clipsync/clipsync-trust-backend/interfaces"
)

// S3Store implements interfaces.CertificateStore on Amazon S3 or a
// compatible object store. Object layout under the prefix:
//
//	account.key
//	certs/<domain>.crt
//	keys/<domain>.key
//
// Access control is the bucket's concern; unlike the file backend
// there is no per-object permission distinction, so the bucket holding
// this prefix must not be public.
type S3Store struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Store creates an S3-backed certificate store. When accessKey
// and secretKey are empty the default AWS credential chain is used.
func NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Store, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &S3Store{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.Trim(prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

func (s *S3Store) StoreAccountKey(ctx context.Context, keyPEM []byte) error {
	return s.put(ctx, s.key(accountKeyFile), keyPEM)
}

func (s *S3Store) LoadAccountKey(ctx context.Context) ([]byte, error) {
	return s.get(ctx, s.key(accountKeyFile))
}

func (s *S3Store) DeleteAccountKey(ctx context.Context) error {
	return s.delete(ctx, s.key(accountKeyFile))
}

func (s *S3Store) StoreCertificate(ctx context.Context, domain string, chainPEM []byte) error {
	return s.put(ctx, s.key("certs", domain+".crt"), chainPEM)
}

func (s *S3Store) LoadCertificate(ctx context.Context, domain string) ([]byte, error) {
	return s.get(ctx, s.key("certs", domain+".crt"))
}

func (s *S3Store) DeleteCertificate(ctx context.Context, domain string) error {
	return s.delete(ctx, s.key("certs", domain+".crt"))
}

func (s *S3Store) StoreKey(ctx context.Context, domain string, keyPEM []byte) error {
	return s.put(ctx, s.key("keys", domain+".key"), keyPEM)
}

func (s *S3Store) LoadKey(ctx context.Context, domain string) ([]byte, error) {
	return s.get(ctx, s.key("keys", domain+".key"))
}

func (s *S3Store) DeleteKey(ctx context.Context, domain string) error {
	return s.delete(ctx, s.key("keys", domain+".key"))
}

func (s *S3Store) HasCertificate(ctx context.Context, domain string) bool {
	if _, err := s.LoadCertificate(ctx, domain); err != nil {
		return false
	}
	if _, err := s.LoadKey(ctx, domain); err != nil {
		return false
	}
	return true
}

// Available checks bucket accessibility with a HEAD request.
func (s *S3Store) Available(ctx context.Context) bool {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		s.log.Debug("S3 store unavailable", "err", err)
		return false
	}
	return true
}

func (s *S3Store) Name() string {
	return fmt.Sprintf("s3-%s-%s", s.bucketName, strings.ReplaceAll(s.prefix, "/", "-"))
}

func (s *S3Store) LocationURI() string {
	return s.locationURI
}

func (s *S3Store) key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}

func (s *S3Store) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		s.log.Error("Failed to write to S3", slog.String("key", key), "err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	s.log.Debug("Stored object in S3",
		slog.String("key", key), slog.Int("size", len(data)))
	return nil
}

func (s *S3Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object %s: %w", key, err)
	}
	return data, nil
}

func (s *S3Store) delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}
