// Package audio issues presigned URLs for voice-clip storage. Clients PUT
// their clips directly to the object store; the server never proxies audio
// bytes.
package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/slwang/voiceledger/internal/server/config"
)

// Seams for tests; the AWS SDK clients are not mockable directly.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const urlValidity = 15 * time.Minute

type Presigner struct {
	config sc.S3Config
}

func NewPresigner(config sc.S3Config) *Presigner {
	return &Presigner{config: config}
}

// StorageKey returns a fresh, non-guessable object key scoped to the user
// and the current date.
func StorageKey(userID string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("users/%s/%d/%02d/%02d/%v.m4a", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (p *Presigner) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(p.config.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.config.AccessKeyID,
			p.config.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if p.config.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.config.Endpoint)
		}
		o.UsePathStyle = p.config.UsePathStyle
	})

	return newS3PresignClient(client), nil
}

// PresignedPutURL returns a fresh storage key for the user and a URL that
// accepts one PUT of the clip.
func (p *Presigner) PresignedPutURL(ctx context.Context, userID string) (string, string, error) {
	presignClient, err := p.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := p.config.Bucket
	key := StorageKey(userID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(urlValidity))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// PresignedGetURL returns a short-lived download URL for an uploaded clip,
// e.g. to hand to the parsing service.
func (p *Presigner) PresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := p.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := p.config.Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(urlValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
