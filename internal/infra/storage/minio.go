package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DiagramArchive keeps rendered SVG diagrams in object storage, keyed by
// content hash. Identical diagrams overwrite themselves, so repeated
// identical requests cost one object.
type DiagramArchive struct {
	client     *minio.Client
	bucketName string
	region     string
}

func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*DiagramArchive, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &DiagramArchive{client: cli, bucketName: bucket, region: region}, nil
}

// Store uploads a rendered diagram and returns its object URL
func (s *DiagramArchive) Store(ctx context.Context, svg []byte) (string, error) {
	sum := sha256.Sum256(svg)
	key := fmt.Sprintf("diagrams/%s.svg", hex.EncodeToString(sum[:8]))

	_, err := s.client.PutObject(ctx, s.bucketName, key,
		bytes.NewReader(svg), int64(len(svg)),
		minio.PutObjectOptions{ContentType: "image/svg+xml"},
	)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://%s/%s/%s", s.client.EndpointURL().Host, s.bucketName, key)
	return url, nil
}
