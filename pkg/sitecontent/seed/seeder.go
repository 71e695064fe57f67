package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
)

// Seeder loads seed documents into a content service.
type Seeder struct {
	service  sitecontent.Service
	resolver *Resolver
	logger   *zap.Logger
}

// NewSeeder creates a Seeder. A nil resolver handles local files only.
func NewSeeder(service sitecontent.Service, resolver *Resolver, logger *zap.Logger) *Seeder {
	if resolver == nil {
		resolver = &Resolver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		service:  service,
		resolver: resolver,
		logger:   logger.Named("seed"),
	}
}

// Run reads the document at location and creates every item in it, in
// order. Rejected items are reported in the result rather than as an error.
func (s *Seeder) Run(ctx context.Context, location string) (*sitecontent.BulkCreateResult, error) {
	source, err := s.resolver.Source(location)
	if err != nil {
		return nil, err
	}

	rc, err := source.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reqs, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}

	s.logger.Info("seeding content",
		zap.String("location", location),
		zap.Int("items", len(reqs)))

	result, err := s.service.BulkCreateItems(ctx, reqs)
	if result != nil {
		s.logger.Info("seed complete",
			zap.String("location", location),
			zap.Int("created", len(result.Created())),
			zap.Int("failed", len(result.Failed())))
	}
	return result, err
}
