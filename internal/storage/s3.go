// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Options configures an S3-compatible bucket.
type S3Options struct {
	Endpoint  string // empty for AWS, set for MinIO, CEPH or Hetzner
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string // optional CDN or direct URL for objects
}

// S3 stores objects in one S3-compatible bucket using path-style
// addressing, so self-hosted gateways work without DNS wildcards.
type S3 struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

// NewS3 creates an S3 backend with static credentials.
func NewS3(opts S3Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 storage: bucket is required")
	}
	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, errors.New("s3 storage: access key and secret key are required")
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	s3opts := s3.Options{
		Region:       opts.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
	}
	if endpoint != "" {
		s3opts.BaseEndpoint = aws.String(endpoint)
	} else {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", opts.Region)
	}

	return &S3{
		s3:        s3.New(s3opts),
		bucket:    opts.Bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

// Put uploads an object with a public-read ACL so photos can be linked
// directly from share pages.
func (c *S3) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(k),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, k, err)
	}
	return nil
}

// Get downloads an object. A missing key yields ErrNotFound.
func (c *S3) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	output, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 download %s/%s: %w", c.bucket, k, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(io.LimitReader(output.Body, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("s3 read body %s/%s: %w", c.bucket, k, err)
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("s3 download %s/%s: object exceeds %d bytes", c.bucket, k, maxObjectSize)
	}
	return data, nil
}

// Delete removes an object. S3 reports success for absent keys.
func (c *S3) Delete(ctx context.Context, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	_, err = c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, k, err)
	}
	return nil
}

// URL returns the public URL for an object.
// Uses the configured public URL if set, otherwise builds a path-style URL.
func (c *S3) URL(key string) string {
	key = strings.TrimLeft(key, "/")
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
