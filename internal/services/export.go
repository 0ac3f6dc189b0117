package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Satish-Das/food-donate-application/internal/storage"
	"github.com/Satish-Das/food-donate-application/types"
)

const (
	exportContentType = "application/json"
	exportPrefix      = "exports/"
)

// ObjectStore holds export files.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}

// ExportResult describes a written export.
type ExportResult struct {
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	Count       int       `json:"count"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type exportDocument struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Count       int              `json:"count"`
	Donations   []types.Donation `json:"donations"`
}

// ExportService writes donation snapshots to object storage.
type ExportService struct {
	donations DonationRepository
	objects   ObjectStore
	now       func() time.Time
}

func NewExportService(donations DonationRepository, objects ObjectStore) *ExportService {
	return &ExportService{donations: donations, objects: objects, now: time.Now}
}

// ExportDonations writes every donation matching query as one JSON file
// under exports/.
func (s *ExportService) ExportDonations(ctx context.Context, query DonationQuery) (ExportResult, error) {
	if s.objects == nil {
		return ExportResult{}, newError(ErrNotConfigured, "Object storage is not configured")
	}

	filter, err := parseDonationQuery(query)
	if err != nil {
		return ExportResult{}, err
	}

	donations, err := s.donations.List(ctx, filter)
	if err != nil {
		return ExportResult{}, fmt.Errorf("list donations: %w", err)
	}

	generatedAt := s.now().UTC()
	payload, err := json.Marshal(exportDocument{
		GeneratedAt: generatedAt,
		Count:       len(donations),
		Donations:   donations,
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode export: %w", err)
	}

	if err := s.objects.EnsureBucket(ctx); err != nil {
		return ExportResult{}, fmt.Errorf("ensure bucket: %w", err)
	}
	key := fmt.Sprintf("%sdonations-%s.json", exportPrefix, generatedAt.Format("20060102T150405Z"))
	if err := s.objects.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), exportContentType); err != nil {
		return ExportResult{}, fmt.Errorf("upload export: %w", err)
	}

	return ExportResult{
		Bucket:      s.objects.Bucket(),
		Key:         key,
		Count:       len(donations),
		GeneratedAt: generatedAt,
	}, nil
}

// OpenExport opens a previously written export. The caller closes the
// returned reader.
func (s *ExportService) OpenExport(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.objects == nil {
		return nil, newError(ErrNotConfigured, "Object storage is not configured")
	}

	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, exportPrefix) || strings.Contains(key, "..") {
		return nil, NewValidationError("Invalid export key")
	}

	r, err := s.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, newError(ErrNotFound, "Export not found")
		}
		return nil, fmt.Errorf("open export: %w", err)
	}
	return r, nil
}
