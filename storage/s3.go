package storage

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"coi-explorer/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object beschreibt ein abgelegtes Objekt im Bucket.
type Object struct {
	Key          string
	LastModified time.Time
}

// ObjectStore ist die Ablage für Graph-Snapshots und Datenbank-Backups.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}

// S3Store legt Objekte in einem S3-kompatiblen Bucket ab.
type S3Store struct {
	Client  *s3.Client
	Bucket  string
	BaseURL string
}

// NewS3Client erstellt einen S3-Client für einen S3-kompatiblen Endpoint.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.S3URL,
				SigningRegion:     cfg.S3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// NewS3Store erstellt Client und Store für den konfigurierten Bucket.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("s3-client: %w", err)
	}
	return &S3Store{Client: client, Bucket: cfg.S3Bucket, BaseURL: cfg.S3URL}, nil
}

// Put lädt ein Objekt hoch und gibt den Link zurück.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", s.BaseURL, s.Bucket, key), nil
}

// List gibt alle Objekte unter prefix zurück.
func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			o := Object{Key: aws.ToString(obj.Key)}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			objects = append(objects, o)
		}
	}
	return objects, nil
}

// Delete entfernt ein Objekt.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// Rotate behält die keep neuesten Objekte unter prefix und löscht den Rest.
// Zurückgegeben werden die gelöschten Schlüssel. Fehler beim Löschen einzelner
// Objekte brechen die Rotation nicht ab, der erste wird am Ende gemeldet.
func Rotate(ctx context.Context, store ObjectStore, prefix string, keep int) ([]string, error) {
	objects, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(objects) <= keep {
		return nil, nil
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})

	var deleted []string
	var firstErr error
	for _, obj := range objects[keep:] {
		if err := store.Delete(ctx, obj.Key); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("löschen von %s: %w", obj.Key, err)
			}
			continue
		}
		deleted = append(deleted, obj.Key)
	}
	return deleted, firstErr
}
