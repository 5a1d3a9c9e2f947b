// services/mirror.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/deckvault/deckvault/catalog/database/models"
)

// MirrorService copies card artwork into an S3-compatible bucket so the
// catalog does not depend on upstream image hosting. Mirroring is best
// effort; a failed image is counted and logged, never fatal.
type MirrorService struct {
	client      *s3.Client
	bucket      string
	region      string
	ArtRoot     string
	parallelism int
	httpClient  *http.Client
}

func NewMirrorService(key, secret, region, bucket, artRoot string, parallelism int) *MirrorService {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		panic(fmt.Sprintf("Unable to load mirror config: %v", err))
	}

	if parallelism <= 0 {
		parallelism = 8
	}

	return &MirrorService{
		client:      s3.NewFromConfig(cfg),
		bucket:      bucket,
		region:      region,
		ArtRoot:     strings.TrimPrefix(artRoot, "/"),
		parallelism: parallelism,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// objectKey places each printing's artwork under <root>/<set>/<number>.jpg.
func (s *MirrorService) objectKey(p *models.CardPrinting) string {
	return fmt.Sprintf("%s/%s/%s.jpg", s.ArtRoot, p.SetCode, p.CollectorNumber)
}

// MirrorPrintings uploads the primary image of each printing, bounded to the
// configured parallelism. Returns the uploaded and failed counts.
func (s *MirrorService) MirrorPrintings(ctx context.Context, printings []*models.CardPrinting) (int, int) {
	start := time.Now()

	var uploaded, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for _, p := range printings {
		p := p
		uri := p.PrimaryImage()
		if uri == "" {
			continue
		}
		g.Go(func() error {
			if err := s.mirrorOne(ctx, p, uri); err != nil {
				failed.Add(1)
				slog.Warn("Failed to mirror artwork",
					slog.String("type", "sync"),
					slog.String("scryfall_id", p.ScryfallID),
					slog.String("key", s.objectKey(p)),
					slog.Any("error", err),
				)
				return nil
			}
			uploaded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("Artwork mirroring finished",
		slog.String("type", "sync"),
		slog.Int64("uploaded", uploaded.Load()),
		slog.Int64("failed", failed.Load()),
		slog.Duration("took", time.Since(start)),
	)

	return int(uploaded.Load()), int(failed.Load())
}

func (s *MirrorService) mirrorOne(ctx context.Context, p *models.CardPrinting, uri string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	key := s.objectKey(p)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	input := &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        resp.Body,
		ContentType: &contentType,
		ACL:         "public-read",
	}
	if resp.ContentLength > 0 {
		input.ContentLength = aws.Int64(resp.ContentLength)
	}

	_, err = s.client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	return nil
}
