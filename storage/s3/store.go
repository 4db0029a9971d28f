// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package s3 implements storage.TextStore and storage.ImageStore on an S3
// compatible object store.
//
// Layout under the configured prefix:
//
//	chunks/<source-hash>/<index>.json   one object per chunk
//	images/<id>.<format>                raw image bytes
//	images/<id>.json                    image metadata
//	imagesrc/<source-hash>/<id>.<format>  empty entry per embedded image
//
// Setting Endpoint switches the client to path-style addressing, which is what
// MinIO and most self-hosted gateways expect.
package s3

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
	"golang.org/x/sync/errgroup"
)

// maxParallelPuts bounds concurrent PutObject calls for one chunk sequence.
const maxParallelPuts = 8

// Config holds S3 connection settings.
type Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("%w: s3 bucket is required", storage.ErrInvalidConfig)
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("%w: s3 access key and secret key must be set together", storage.ErrInvalidConfig)
	}
	return nil
}

// API is the subset of the S3 client used by Store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store is an S3-backed content store.
type Store struct {
	client API
	bucket string
	prefix string
	logger *slog.Logger
}

var (
	_ storage.TextStore  = (*Store)(nil)
	_ storage.ImageStore = (*Store)(nil)
)

// Open builds an S3 client from cfg and verifies the bucket exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("failed to verify bucket %s: %w", cfg.Bucket, err)
	}

	return New(client, cfg.Bucket, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client API, bucket, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: slog.Default().With("component", "s3-store", "bucket", bucket),
	}
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}

// PutChunks writes one object per chunk and deletes objects of the same
// source whose index is beyond the new sequence.
func (s *Store) PutChunks(ctx context.Context, sourcePath string, chunks []*core.Chunk) error {
	if err := core.ValidateChunkSequence(sourcePath, chunks); err != nil {
		return err
	}

	dir := s.chunkDir(sourcePath)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPuts)
	for _, c := range chunks {
		g.Go(func() error {
			body, err := storage.MarshalChunkJSON(c)
			if err != nil {
				return err
			}
			return s.put(gctx, dir+chunkObjectName(c.Index), body, "application/json")
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	keys, err := s.list(ctx, dir)
	if err != nil {
		return err
	}
	for _, key := range keys {
		idx, ok := chunkIndexFromKey(key)
		if !ok || idx < len(chunks) {
			continue
		}
		if err := s.delete(ctx, key); err != nil {
			return err
		}
		s.logger.Debug("removed stale chunk", "source", sourcePath, "index", idx)
	}
	return nil
}

// GetChunks loads the chunks of sourcePath ordered by index.
func (s *Store) GetChunks(ctx context.Context, sourcePath string) ([]*core.Chunk, error) {
	keys, err := s.list(ctx, s.chunkDir(sourcePath))
	if err != nil {
		return nil, err
	}

	chunks := make([]*core.Chunk, 0, len(keys))
	for _, key := range keys {
		if _, ok := chunkIndexFromKey(key); !ok {
			continue
		}
		body, err := s.get(ctx, key)
		if err != nil {
			return nil, err
		}
		c, err := storage.UnmarshalChunkJSON(body)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	slices.SortFunc(chunks, func(a, b *core.Chunk) int { return a.Index - b.Index })
	return chunks, nil
}

// PutImage writes the image bytes and its metadata object.
func (s *Store) PutImage(ctx context.Context, artifact *core.ImageArtifact) error {
	if err := core.ValidateImageArtifact(artifact); err != nil {
		return err
	}
	metadata, err := storage.MarshalImageMetadata(artifact)
	if err != nil {
		return err
	}

	base := s.prefix + "images/" + artifact.ID
	if err := s.put(ctx, base+"."+artifact.Format, artifact.Bytes, "image/"+artifact.Format); err != nil {
		return err
	}
	// Metadata goes last so a readable metadata object implies the bytes exist.
	if err := s.put(ctx, base+".json", metadata, "application/json"); err != nil {
		return err
	}
	if artifact.ParentDocument == "" {
		return nil
	}
	return s.put(ctx, s.imageSourceDir(artifact.ParentDocument)+artifact.ID+"."+artifact.Format, nil, "application/octet-stream")
}

// PruneImages deletes the images of parentDocument that are not in keep.
func (s *Store) PruneImages(ctx context.Context, parentDocument string, keep []string) error {
	keys, err := s.list(ctx, s.imageSourceDir(parentDocument))
	if err != nil {
		return err
	}
	for _, key := range keys {
		name := key[strings.LastIndex(key, "/")+1:]
		id, format, ok := strings.Cut(name, ".")
		if !ok || slices.Contains(keep, id) {
			continue
		}
		base := s.prefix + "images/" + id
		// Metadata first; see PutImage.
		for _, obj := range []string{base + ".json", base + "." + format, key} {
			if err := s.delete(ctx, obj); err != nil {
				return err
			}
		}
		s.logger.Debug("removed stale image", "source", parentDocument, "id", id)
	}
	return nil
}

// GetImage loads an image and its metadata.
func (s *Store) GetImage(ctx context.Context, id string) (*core.ImageArtifact, error) {
	base := s.prefix + "images/" + id
	metadata, err := s.get(ctx, base+".json")
	if err != nil {
		return nil, err
	}
	artifact, err := storage.UnmarshalImageMetadata(metadata)
	if err != nil {
		return nil, err
	}
	data, err := s.get(ctx, base+"."+artifact.Format)
	if err != nil {
		return nil, err
	}
	artifact.Bytes = data
	return artifact, nil
}

func (s *Store) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("failed to store object", "key", key, "err", err)
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *Store) delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// chunkDir returns the key prefix holding the chunks of sourcePath.
func (s *Store) chunkDir(sourcePath string) string {
	return s.prefix + "chunks/" + sourceHash(sourcePath) + "/"
}

// imageSourceDir returns the key prefix indexing the images embedded in parent.
func (s *Store) imageSourceDir(parent string) string {
	return s.prefix + "imagesrc/" + sourceHash(parent) + "/"
}

func sourceHash(path string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(path))
	return hex.EncodeToString(h.Sum(nil))
}

func chunkObjectName(index int) string {
	return fmt.Sprintf("%08d.json", index)
}

func chunkIndexFromKey(key string) (int, bool) {
	name := key[strings.LastIndex(key, "/")+1:]
	num, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	return idx, true
}
