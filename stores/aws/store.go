package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"goods-manager/core"
	"io"
	"log"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// objectAPI is the part of the S3 client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Store struct {
	s3Client objectAPI
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return newStoreWithClient(s3.NewFromConfig(cfg), bucketName)
}

func newStoreWithClient(client objectAPI, bucketName string) *s3Store {
	return &s3Store{
		s3Client: client,
		bucket:   bucketName,
	}
}

func objectKey(key string) (string, error) {
	// Keys are plain names, never paths.
	if path.Base(key) != key {
		return "", fmt.Errorf("invalid key: must not be a path")
	}
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key: must not be empty or a dot directory")
	}
	return key + ".json", nil
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	objKey, err := objectKey(key)
	if err != nil {
		return nil, err
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("key %s: %w", key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get key %s: %v", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read value of %s: %v", key, err)
	}
	return data, nil
}

func (s *s3Store) Set(ctx context.Context, key string, data []byte) error {
	objKey, err := objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save key %s: %v", key, err)
	}
	return nil
}
