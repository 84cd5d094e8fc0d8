package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"opinionpulse/internal/reportstore"
)

var ErrNotFound = errors.New("archive: report not found")

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Archive keeps the full JSON of every report in object storage, one
// object per run under the topic prefix. The relational store holds the
// queryable copy; this is the durable raw record.
type Archive struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

func New(cfg Config) (*Archive, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("archive endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("archive access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init archive client: %w", err)
	}
	return &Archive{client: client, bucket: bucket, region: region}, nil
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	if a == nil || a.client == nil {
		return fmt.Errorf("archive is nil")
	}
	a.initOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.initErr = err
			return
		}
		if exists {
			return
		}
		a.initErr = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region})
	})
	return a.initErr
}

// PutReport writes the report JSON under <topic>/<run_id>.json.
func (a *Archive) PutReport(ctx context.Context, report reportstore.StoredReport) error {
	if a == nil {
		return nil
	}
	if strings.TrimSpace(report.RunID) == "" {
		return fmt.Errorf("run_id is required")
	}
	if err := a.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	key := objectKey(report.Topic, report.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

// GetReport reads one archived report back.
func (a *Archive) GetReport(ctx context.Context, topic, runID string) (reportstore.StoredReport, error) {
	var report reportstore.StoredReport
	if a == nil {
		return report, ErrNotFound
	}
	if err := a.ensureBucket(ctx); err != nil {
		return report, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := a.client.GetObject(ctx, a.bucket, objectKey(topic, runID), minio.GetObjectOptions{})
	if err != nil {
		return report, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return report, ErrNotFound
		}
		return report, err
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return report, err
	}
	return report, nil
}

// ListRuns returns the archived run IDs for a topic, sorted.
func (a *Archive) ListRuns(ctx context.Context, topic string) ([]string, error) {
	if a == nil {
		return nil, nil
	}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	prefix := topicPrefix(topic)
	runs := make([]string, 0, 32)
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), ".json")
		if name != "" {
			runs = append(runs, name)
		}
	}
	sort.Strings(runs)
	return runs, nil
}

// ReportURL returns a presigned link to the raw report JSON, valid 1 hour.
func (a *Archive) ReportURL(ctx context.Context, topic, runID string) (string, error) {
	if a == nil || a.client == nil {
		return "", fmt.Errorf("archive is nil")
	}
	u, err := a.client.PresignedGetObject(ctx, a.bucket, objectKey(topic, runID), time.Hour, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func topicPrefix(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "general"
	}
	return strings.ReplaceAll(topic, "/", "_") + "/"
}

func objectKey(topic, runID string) string {
	return topicPrefix(topic) + strings.TrimSpace(runID) + ".json"
}
