package service

import (
	"context"
	"sync"
	"time"

	"github.com/ds124wfegd/course-import/internal/database/postgres"
	"github.com/ds124wfegd/course-import/internal/entity"
	"github.com/ds124wfegd/course-import/internal/pkg/extractor"
	"github.com/ds124wfegd/course-import/internal/pkg/fetcher"
	"github.com/ds124wfegd/course-import/internal/pkg/kafka"
	"github.com/ds124wfegd/course-import/internal/pkg/processor"
	"github.com/ds124wfegd/course-import/internal/pkg/storage"
)

type ImportService interface {
	Import(ctx context.Context, rawURL string) (*entity.CourseDraft, error)
	RecentImports(ctx context.Context, limit int) ([]entity.ImportEvent, error)
	// Wait blocks until pending import events and audit rows are written.
	// Call it before closing the kafka producer or the database.
	Wait()
}

type ImportServiceConfig struct {
	Timeout      time.Duration
	Folder       string
	TargetFormat string
}

// Deps are built once at startup and shared by every import.
// History may be nil when no database is configured.
type Deps struct {
	Fetcher    fetcher.Fetcher
	Extractor  extractor.Extractor
	Transcoder processor.Transcoder
	Publisher  storage.Publisher
	Events     kafka.Producer
	History    postgres.ImportRepositoryInterface
}

type importService struct {
	fetcher    fetcher.Fetcher
	extractor  extractor.Extractor
	transcoder processor.Transcoder
	publisher  storage.Publisher
	events     kafka.Producer
	history    postgres.ImportRepositoryInterface
	config     ImportServiceConfig

	pending sync.WaitGroup
}

func NewImportService(deps Deps, config ImportServiceConfig) ImportService {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Folder == "" {
		config.Folder = "imports"
	}
	return &importService{
		fetcher:    deps.Fetcher,
		extractor:  deps.Extractor,
		transcoder: deps.Transcoder,
		publisher:  deps.Publisher,
		events:     deps.Events,
		history:    deps.History,
		config:     config,
	}
}
