package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-sorter/internal/analysis"
	"github.com/zombor/receipt-sorter/internal/extraction"
)

// ErrAnalysisFailed wraps errors returned by the analyzer
var ErrAnalysisFailed = errors.New("analyzing receipt")

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db          DB
	analyzer    analysis.Analyzer
	store       ObjectStore
	extractor   *extraction.Extractor
	idGenerator IDGenerator
	timeSource  TimeSource
	logger      *slog.Logger
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, analyzer analysis.Analyzer, store ObjectStore, logger *slog.Logger) *Service {
	return NewServiceWithDeps(db, analyzer, store, logger, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, analyzer analysis.Analyzer, store ObjectStore, logger *slog.Logger, idGen IDGenerator, timeSrc TimeSource) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:          db,
		analyzer:    analyzer,
		store:       store,
		extractor:   extraction.NewExtractor(logger),
		idGenerator: idGen,
		timeSource:  timeSrc,
		logger:      logger,
	}
}

var (
	reFilenameJunk  = regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)
	reFilenameSpace = regexp.MustCompile(`\s+`)
)

const maxFilenameBase = 50

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = reFilenameJunk.ReplaceAllString(base, "")
	base = reFilenameSpace.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if r := []rune(base); len(r) > maxFilenameBase {
		base = strings.TrimSpace(string(r[:maxFilenameBase]))
	}
	if base == "" {
		base = "receipt"
	}
	if reFilenameJunk.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}

	return base + ext
}

// ProcessReceipt stores an uploaded image, extracts its record, moves the
// image under cash/ or other/ and saves the receipt. A failed move still
// saves and returns the receipt, together with a *RelocationError.
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()
	key := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))

	if err := s.store.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("storing file: %w", err)
	}

	resp, err := s.analyzer.Analyze(ctx, data, contentType)
	if err != nil {
		s.logger.Error("Failed to analyze receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.discard(ctx, key)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	record, err := s.extractor.Extract(resp)
	if err != nil {
		s.logger.Error("Failed to extract record", "filename", filename, "error", err)
		s.discard(ctx, key)
		return nil, fmt.Errorf("extracting record: %w", err)
	}

	receipt := &Receipt{
		ID:          id,
		ContentType: contentType,
		Record:      record,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var relocErr *RelocationError
	receipt.ObjectKey, err = Relocate(ctx, s.store, record, key)
	if errors.As(err, &relocErr) {
		s.logger.Warn("Failed to relocate receipt image",
			"id", id,
			"source", relocErr.Source,
			"destination", relocErr.Destination,
			"error", relocErr.Err,
		)
		receipt.RelocationError = relocErr.Error()
	} else if err != nil {
		return nil, fmt.Errorf("relocating receipt: %w", err)
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.discard(ctx, receipt.ObjectKey)
		if relocErr != nil && receipt.ObjectKey != key {
			// the move left the upload behind
			s.discard(ctx, key)
		}
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	s.logger.Info("Processed receipt",
		"id", id,
		"object_key", receipt.ObjectKey,
		"payment_method", record.PaymentMethod,
	)

	if relocErr != nil {
		return receipt, relocErr
	}
	return receipt, nil
}

// discard removes an object after a failed step, logging any error
func (s *Service) discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete file", "key", key, "error", err)
	}
}

// ExtractRecord turns a stored analysis response into a record without
// touching the store or the database
func (s *Service) ExtractRecord(payload []byte) (*extraction.Record, error) {
	record, err := s.extractor.ExtractJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("extracting record: %w", err)
	}
	return record, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts, oldest first
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].CreatedAt.Before(receipts[j].CreatedAt)
	})
	return receipts, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(ctx context.Context, id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.store.Delete(ctx, receipt.ObjectKey); err != nil {
		// the record goes even when the image is already gone
		s.logger.Warn("Failed to delete file", "key", receipt.ObjectKey, "error", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the image data for a receipt
func (s *Service) GetReceiptFile(ctx context.Context, id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.store.Get(ctx, receipt.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

// ExportReceipts writes every receipt to w as an xlsx workbook
func (s *Service) ExportReceipts(w io.Writer) error {
	receipts, err := s.ListReceipts()
	if err != nil {
		return err
	}
	if err := WriteWorkbook(w, receipts); err != nil {
		return fmt.Errorf("exporting receipts: %w", err)
	}
	s.logger.Info("Exported receipts", "rows", len(receipts))
	return nil
}
