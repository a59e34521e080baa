package xarchive

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// DefaultS3Region 未指定区域时使用。
const DefaultS3Region = "us-east-1"

// S3Config S3 归档的连接参数。
type S3Config struct {
	Bucket   string `koanf:"bucket"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"` // 非空时使用自定义端点（如 MinIO）

	// 静态凭证，均为空时使用默认凭证链。
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	SessionToken    string `koanf:"session_token"`

	PathStyle bool `koanf:"path_style"`

	// HTTPClient 为空时使用 SDK 默认客户端。
	HTTPClient *http.Client `koanf:"-"`
}

// objectPutter *s3.Client 实现此接口。
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 写入 S3 兼容存储的归档，对象键为 KeyPrefix + Path(id, now)。
type S3 struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3 按 cfg 创建客户端。
func NewS3(ctx context.Context, cfg S3Config, opts ...Option) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, ErrEmptyBucket
	}
	region := cfg.Region
	if region == "" {
		region = DefaultS3Region
	}

	configure := func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	}

	var client *s3.Client
	if cfg.AccessKeyID != "" {
		o := s3.Options{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		}
		configure(&o)
		client = s3.New(o)
	} else {
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("xarchive: load aws config: %w", err)
		}
		client = s3.NewFromConfig(awsCfg, configure)
	}
	return NewS3FromClient(client, cfg.Bucket, opts...)
}

// NewS3FromClient 使用已有客户端。
func NewS3FromClient(client *s3.Client, bucket string, opts ...Option) (*S3, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if bucket == "" {
		return nil, ErrEmptyBucket
	}
	o := applyOptions(opts)
	return &S3{client: client, bucket: bucket, prefix: o.KeyPrefix, now: o.Now}, nil
}

// ObjectKey 返回 id 在时间 at 归档时的对象键。
func (s *S3) ObjectKey(id xapi.Identity, at time.Time) string {
	return s.prefix + Path(id, at)
}

// Save 上传一个对象。
func (s *S3) Save(ctx context.Context, id xapi.Identity, raw []byte) error {
	key := s.ObjectKey(id, s.now())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(raw),
		ContentLength: aws.Int64(int64(len(raw))),
		ContentType:   aws.String(DefaultContentType),
		Metadata: map[string]string{
			"scope":  id.Scope,
			"method": id.Method,
			"key-id": id.KeyID,
		},
	})
	if err != nil {
		return fmt.Errorf("xarchive: put %s: %w", key, err)
	}
	return nil
}

var _ xapi.ArchiveStore = (*S3)(nil)
