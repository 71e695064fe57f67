package scan

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
)

const defaultBatchSize = 100

// Scanner lists items and hands each one to a processor.
type Scanner struct {
	service sitecontent.Service
	logger  *zap.Logger
}

// New creates a new Scanner.
func New(service sitecontent.Service, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{service: service, logger: logger.Named("scan")}
}

// ScanOptions configures a scan.
type ScanOptions struct {
	// Filter selects which items to process
	Filter sitecontent.ListItemsRequest

	// Processor is required unless DryRun is set
	Processor ItemProcessor

	// BatchSize controls how often OnProgress fires (default: 100)
	BatchSize int

	// DryRun logs what would be processed without calling the processor
	DryRun bool

	// OnProgress is called after each batch (optional)
	OnProgress func(processed, total int64)
}

// ScanResult contains statistics about a scan.
type ScanResult struct {
	TotalFound     int64
	TotalProcessed int64
	TotalFailed    int64
	FailedIDs      []string
}

// Scan lists the items matching opts.Filter and processes each one. A
// processor error marks that item failed and the scan moves on.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	result := &ScanResult{}

	if !opts.DryRun && opts.Processor == nil {
		return result, errors.New("processor is required when DryRun is false")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	items, err := s.service.ListItems(ctx, opts.Filter)
	if err != nil {
		return result, err
	}
	result.TotalFound = int64(len(items))

	for start := 0; start < len(items); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(items))

		for _, item := range items[start:end] {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			if opts.DryRun {
				s.logger.Info("dry run: would process",
					zap.String("id", item.ID),
					zap.String("type", string(item.Type)),
					zap.String("status", string(item.Status)))
				result.TotalProcessed++
				continue
			}

			if err := opts.Processor.Process(ctx, item); err != nil {
				result.TotalFailed++
				result.FailedIDs = append(result.FailedIDs, item.ID)
				s.logger.Warn("failed to process item", zap.String("id", item.ID), zap.Error(err))
				continue
			}
			result.TotalProcessed++
		}

		if opts.OnProgress != nil {
			opts.OnProgress(result.TotalProcessed+result.TotalFailed, result.TotalFound)
		}
	}

	return result, nil
}

// ForEach processes each matching item with fn.
func (s *Scanner) ForEach(ctx context.Context, filter sitecontent.ListItemsRequest, fn func(context.Context, *sitecontent.Item) error) (*ScanResult, error) {
	return s.Scan(ctx, ScanOptions{
		Filter:    filter,
		Processor: ProcessorFunc(fn),
	})
}
