package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/course-import/internal/entity"
	"github.com/ds124wfegd/course-import/internal/pkg/normalizer"
)

const (
	defaultExtension = ".jpg"
	defaultMimeType  = "image/jpeg"
)

// ErrHistoryDisabled is returned by RecentImports when no database is configured.
var ErrHistoryDisabled = errors.New("import history is disabled")

func (s *importService) Import(ctx context.Context, rawURL string) (*entity.CourseDraft, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := normalizer.ValidateAbsolute(rawURL); err != nil {
		return nil, entity.ErrInvalidURL
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	started := time.Now()
	log := logrus.WithField("url", rawURL)

	page, err := s.fetcher.FetchPage(ctx, rawURL)
	if err != nil {
		log.WithError(err).Warn("Page fetch failed")
		s.recordImport(entity.ImportEvent{
			SourceURL:  rawURL,
			Status:     entity.ImportStatusPageFailed,
			DurationMS: time.Since(started).Milliseconds(),
		})
		return nil, fmt.Errorf("%w: %w", entity.ErrPageFetch, err)
	}

	meta := s.extractor.Extract(page.Body, rawURL)
	results := s.processImages(ctx, meta)
	photos := entity.PublishedURLs(results)

	log.WithFields(logrus.Fields{
		"title":      meta.Title,
		"candidates": len(meta.ImageCandidates),
		"published":  len(photos),
	}).Info("Course import completed")

	s.recordImport(entity.ImportEvent{
		SourceURL:  rawURL,
		Title:      meta.Title,
		Status:     entity.ImportStatusCompleted,
		Candidates: len(meta.ImageCandidates),
		Published:  len(photos),
		Failed:     len(results) - len(photos),
		DurationMS: time.Since(started).Milliseconds(),
	})

	return entity.NewCourseDraft(meta, photos), nil
}

// processImages handles candidates strictly one after another.
// Every candidate yields exactly one result, failures never stop the loop.
func (s *importService) processImages(ctx context.Context, meta entity.ExtractedMetadata) []entity.ImageResult {
	results := make([]entity.ImageResult, 0, len(meta.ImageCandidates))
	for _, candidate := range meta.ImageCandidates {
		result := s.processImage(ctx, meta.BaseURL, candidate)
		if result.Err != nil {
			logrus.WithFields(logrus.Fields{
				"url":   result.SourceURL,
				"stage": result.Stage,
				"error": result.Err,
			}).Warn("Skipping image candidate")
		}
		results = append(results, result)
	}
	return results
}

func (s *importService) processImage(ctx context.Context, baseURL, candidate string) entity.ImageResult {
	result := entity.ImageResult{SourceURL: candidate}

	fail := func(stage entity.ImageStage, err error) entity.ImageResult {
		result.Stage = stage
		result.Err = err
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(entity.StageFetch, err)
	}

	imageURL, err := normalizer.Resolve(baseURL, candidate)
	if err != nil {
		return fail(entity.StageResolve, err)
	}
	result.SourceURL = imageURL

	resp, err := s.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return fail(entity.StageFetch, err)
	}

	processed, err := s.transcoder.Transcode(ctx, entity.ImageInput{
		Name:         "imported" + extensionFromURL(imageURL),
		Buffer:       resp.Body,
		Size:         len(resp.Body),
		Type:         mimeFromContentType(resp.ContentType),
		TargetFormat: s.config.TargetFormat,
	})
	if err != nil {
		return fail(entity.StageProcess, err)
	}

	publicURL, err := s.publisher.Publish(ctx, processed.Buffer, processed.FileName, processed.MimeType, s.config.Folder)
	if err != nil {
		return fail(entity.StagePublish, err)
	}

	result.PublishedURL = publicURL
	return result
}

func (s *importService) recordImport(event entity.ImportEvent) {
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now().UTC()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if s.events != nil {
			if err := s.events.SendImportEvent(ctx, event); err != nil {
				logrus.WithError(err).Error("Failed to send import event")
			}
		}
		if s.history != nil {
			if err := s.history.Record(ctx, event); err != nil {
				logrus.WithError(err).Error("Failed to record import")
			}
		}
	}()
}

func (s *importService) Wait() {
	s.pending.Wait()
}

func (s *importService) RecentImports(ctx context.Context, limit int) ([]entity.ImportEvent, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

// extensionFromURL takes the extension of the URL path, query and fragment excluded.
func extensionFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if idx := strings.IndexAny(p, "?#"); idx >= 0 {
		p = p[:idx]
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" || ext == "." {
		return defaultExtension
	}
	return ext
}

func mimeFromContentType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return defaultMimeType
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "" {
		return defaultMimeType
	}
	return mediaType
}
