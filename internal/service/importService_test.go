package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/course-import/internal/entity"
	"github.com/ds124wfegd/course-import/internal/pkg/extractor"
	"github.com/ds124wfegd/course-import/internal/pkg/fetcher"
	"github.com/ds124wfegd/course-import/internal/pkg/processor"
	"github.com/ds124wfegd/course-import/internal/pkg/storage"
)

type fakeFetcher struct {
	mu        sync.Mutex
	page      *fetcher.Response
	pageErr   error
	images    map[string]*fetcher.Response
	imageURLs []string
}

func (f *fakeFetcher) FetchPage(ctx context.Context, rawURL string) (*fetcher.Response, error) {
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return f.page, nil
}

func (f *fakeFetcher) FetchImage(ctx context.Context, rawURL string) (*fetcher.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageURLs = append(f.imageURLs, rawURL)
	resp, ok := f.images[rawURL]
	if !ok {
		return nil, &fetcher.StatusError{URL: rawURL, StatusCode: http.StatusNotFound}
	}
	return resp, nil
}

func (f *fakeFetcher) fetchedImages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.imageURLs...)
}

type fakeTranscoder struct {
	inputs []entity.ImageInput
	failOn string
}

func (f *fakeTranscoder) Transcode(ctx context.Context, input entity.ImageInput) (*entity.ProcessedImage, error) {
	f.inputs = append(f.inputs, input)
	if f.failOn != "" && string(input.Buffer) == f.failOn {
		return nil, entity.ErrUnsupportedFormat
	}
	return &entity.ProcessedImage{
		Buffer:   input.Buffer,
		FileName: "imported.jpg",
		MimeType: "image/jpeg",
		Size:     len(input.Buffer),
	}, nil
}

type fakePublisher struct {
	folders []string
	failOn  string
}

func (f *fakePublisher) Publish(ctx context.Context, data []byte, fileName, mimeType, folder string) (string, error) {
	f.folders = append(f.folders, folder)
	if f.failOn != "" && string(data) == f.failOn {
		return "", errors.New("bucket unavailable")
	}
	return "https://storage.test/" + folder + "/" + string(data), nil
}

type fakeEvents struct {
	events chan entity.ImportEvent
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(chan entity.ImportEvent, 4)}
}

func (f *fakeEvents) SendImportEvent(ctx context.Context, event entity.ImportEvent) error {
	f.events <- event
	return nil
}

func (f *fakeEvents) Close() error { return nil }

func (f *fakeEvents) next(t *testing.T) entity.ImportEvent {
	t.Helper()
	select {
	case e := <-f.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("import event was not sent")
		return entity.ImportEvent{}
	}
}

type fakeHistory struct {
	mu     sync.Mutex
	delay  time.Duration
	events []entity.ImportEvent
}

func (f *fakeHistory) Record(ctx context.Context, event entity.ImportEvent) error {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]entity.ImportEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.ImportEvent(nil), f.events...), nil
}

func imageResponse(body, contentType string) *fetcher.Response {
	return &fetcher.Response{StatusCode: http.StatusOK, ContentType: contentType, Body: []byte(body)}
}

func newTestService(f *fakeFetcher, tr *fakeTranscoder, pub *fakePublisher, events *fakeEvents) ImportService {
	return NewImportService(Deps{
		Fetcher:    f,
		Extractor:  extractor.NewExtractor(5),
		Transcoder: tr,
		Publisher:  pub,
		Events:     events,
	}, ImportServiceConfig{Timeout: 5 * time.Second})
}

const wildernessPage = `<html><head><meta property="og:title" content="Wilderness 101"><meta property="og:image" content="/img/a.jpg"></head><body><img src="/img/b.jpg"><img src="https://cdn.x.com/c.jpg"></body></html>`

func TestImportWildernessPage(t *testing.T) {
	f := &fakeFetcher{
		page: &fetcher.Response{StatusCode: http.StatusOK, Body: []byte(wildernessPage)},
		images: map[string]*fetcher.Response{
			"https://example.com/img/a.jpg": imageResponse("a", "image/jpeg"),
			"https://example.com/img/b.jpg": imageResponse("b", "image/png"),
			"https://cdn.x.com/c.jpg":       imageResponse("c", ""),
		},
	}
	tr := &fakeTranscoder{}
	pub := &fakePublisher{}
	events := newFakeEvents()

	draft, err := newTestService(f, tr, pub, events).Import(context.Background(), "https://example.com/course")
	require.NoError(t, err)

	assert.Equal(t, "Wilderness 101", draft.Title)
	assert.Equal(t, "", draft.Description)
	assert.Equal(t, []string{
		"https://example.com/img/a.jpg",
		"https://example.com/img/b.jpg",
		"https://cdn.x.com/c.jpg",
	}, f.fetchedImages())
	assert.Equal(t, []string{
		"https://storage.test/imports/a",
		"https://storage.test/imports/b",
		"https://storage.test/imports/c",
	}, draft.PhotoURL)
	assert.Equal(t, []string{"imports", "imports", "imports"}, pub.folders)

	require.Len(t, tr.inputs, 3)
	assert.Equal(t, "imported.jpg", tr.inputs[0].Name)
	assert.Equal(t, "image/jpeg", tr.inputs[0].Type)
	assert.Equal(t, "image/png", tr.inputs[1].Type)
	assert.Equal(t, "image/jpeg", tr.inputs[2].Type)
	assert.Equal(t, 1, tr.inputs[2].Size)

	event := events.next(t)
	assert.Equal(t, entity.ImportStatusCompleted, event.Status)
	assert.Equal(t, 3, event.Candidates)
	assert.Equal(t, 3, event.Published)
	assert.Equal(t, 0, event.Failed)
	assert.NotEmpty(t, event.ID)
}

func TestImportEmptyPage(t *testing.T) {
	f := &fakeFetcher{page: &fetcher.Response{StatusCode: http.StatusOK, Body: []byte("<html></html>")}}

	draft, err := newTestService(f, &fakeTranscoder{}, &fakePublisher{}, newFakeEvents()).Import(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, "", draft.Title)
	assert.Equal(t, "", draft.Description)
	require.NotNil(t, draft.PhotoURL)
	assert.Empty(t, draft.PhotoURL)
	assert.Empty(t, f.fetchedImages())
}

func TestImportInvalidURL(t *testing.T) {
	inputs := []string{"", "   ", "not a url", "example.com/course", "/relative", "ftp://example.com/x", "https://"}

	for _, in := range inputs {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			f := &fakeFetcher{pageErr: errors.New("must not be called")}
			_, err := newTestService(f, &fakeTranscoder{}, &fakePublisher{}, newFakeEvents()).Import(context.Background(), in)
			assert.ErrorIs(t, err, entity.ErrInvalidURL)
			assert.Empty(t, f.fetchedImages())
		})
	}
}

func TestImportPageFetchFailure(t *testing.T) {
	f := &fakeFetcher{pageErr: &fetcher.StatusError{URL: "https://example.com", StatusCode: http.StatusForbidden}}
	events := newFakeEvents()

	draft, err := newTestService(f, &fakeTranscoder{}, &fakePublisher{}, events).Import(context.Background(), "https://example.com")
	assert.Nil(t, draft)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrPageFetch)

	var statusErr *fetcher.StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Empty(t, f.fetchedImages())

	assert.Equal(t, entity.ImportStatusPageFailed, events.next(t).Status)
}

func TestImportSkipsFailedImages(t *testing.T) {
	html := `<html><head><meta property="og:image" content="/a.jpg"></head><body>
<img src="/missing.jpg"><img src="/broken.jpg"><img src="/nopublish.jpg"><img src="data:image/png;base64,AAAA"></body></html>`

	f := &fakeFetcher{
		page: &fetcher.Response{StatusCode: http.StatusOK, Body: []byte(html)},
		images: map[string]*fetcher.Response{
			"https://example.com/a.jpg":         imageResponse("a", "image/jpeg"),
			"https://example.com/broken.jpg":    imageResponse("broken", "image/jpeg"),
			"https://example.com/nopublish.jpg": imageResponse("nopublish", "image/jpeg"),
		},
	}
	tr := &fakeTranscoder{failOn: "broken"}
	pub := &fakePublisher{failOn: "nopublish"}
	events := newFakeEvents()

	draft, err := newTestService(f, tr, pub, events).Import(context.Background(), "https://example.com/course")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://storage.test/imports/a"}, draft.PhotoURL)

	event := events.next(t)
	assert.Equal(t, 5, event.Candidates)
	assert.Equal(t, 1, event.Published)
	assert.Equal(t, 4, event.Failed)
}

func TestProcessImagesResultStages(t *testing.T) {
	f := &fakeFetcher{
		images: map[string]*fetcher.Response{
			"https://example.com/ok.png":    imageResponse("ok", "image/png"),
			"https://example.com/bad.png":   imageResponse("bad", "image/png"),
			"https://example.com/unpub.png": imageResponse("unpub", "image/png"),
		},
	}
	svc := newTestService(f, &fakeTranscoder{failOn: "bad"}, &fakePublisher{failOn: "unpub"}, newFakeEvents()).(*importService)

	results := svc.processImages(context.Background(), entity.ExtractedMetadata{
		BaseURL:         "https://example.com/page",
		ImageCandidates: []string{"/ok.png", "/gone.png", "/bad.png", "/unpub.png", "javascript:void(0)"},
	})

	require.Len(t, results, 5)
	assert.True(t, results[0].OK())
	assert.Equal(t, "https://storage.test/imports/ok", results[0].PublishedURL)
	assert.Equal(t, entity.StageFetch, results[1].Stage)
	assert.Equal(t, entity.StageProcess, results[2].Stage)
	assert.Equal(t, entity.StagePublish, results[3].Stage)
	assert.Equal(t, entity.StageResolve, results[4].Stage)
	assert.ErrorIs(t, results[4].Err, entity.ErrUnresolvable)
}

func TestProcessImagesStopsOnCanceledContext(t *testing.T) {
	f := &fakeFetcher{images: map[string]*fetcher.Response{}}
	svc := newTestService(f, &fakeTranscoder{}, &fakePublisher{}, newFakeEvents()).(*importService)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.processImages(ctx, entity.ExtractedMetadata{
		BaseURL:         "https://example.com",
		ImageCandidates: []string{"/a.jpg", "/b.jpg"},
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Empty(t, f.fetchedImages())
}

func TestRecentImports(t *testing.T) {
	history := &fakeHistory{}
	f := &fakeFetcher{page: &fetcher.Response{StatusCode: http.StatusOK, Body: []byte("<html><title>T</title></html>")}}
	svc := NewImportService(Deps{
		Fetcher:    f,
		Extractor:  extractor.NewExtractor(5),
		Transcoder: &fakeTranscoder{},
		Publisher:  &fakePublisher{},
		History:    history,
	}, ImportServiceConfig{})

	_, err := svc.Import(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		events, err := svc.RecentImports(context.Background(), 10)
		return err == nil && len(events) == 1 && events[0].Title == "T"
	}, 2*time.Second, 10*time.Millisecond)

	withoutHistory := newTestService(f, &fakeTranscoder{}, &fakePublisher{}, newFakeEvents())
	_, err = withoutHistory.RecentImports(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestWaitFlushesImportRecords(t *testing.T) {
	history := &fakeHistory{delay: 20 * time.Millisecond}
	events := newFakeEvents()
	svc := NewImportService(Deps{
		Fetcher:    &fakeFetcher{page: &fetcher.Response{StatusCode: http.StatusOK, Body: []byte("<html><title>T</title></html>")}},
		Extractor:  extractor.NewExtractor(5),
		Transcoder: &fakeTranscoder{},
		Publisher:  &fakePublisher{},
		Events:     events,
		History:    history,
	}, ImportServiceConfig{})

	_, err := svc.Import(context.Background(), "https://example.com")
	require.NoError(t, err)
	_, err = svc.Import(context.Background(), "https://example.com/other")
	require.NoError(t, err)

	svc.Wait()

	recorded, err := svc.RecentImports(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recorded, 2)
	assert.Len(t, events.events, 2)

	// повторный вызов без новых импортов не блокирует
	svc.Wait()
}

func TestExtensionFromURL(t *testing.T) {
	tests := map[string]string{
		"https://example.com/img/a.PNG":        ".png",
		"https://example.com/img/a.webp?w=200": ".webp",
		"https://example.com/img/photo":        ".jpg",
		"https://example.com/img/a.gif#frag":   ".gif",
		"https://example.com/dir.v2/photo":     ".jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, extensionFromURL(in), in)
	}
}

func TestMimeFromContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", mimeFromContentType(""))
	assert.Equal(t, "image/png", mimeFromContentType("image/png"))
	assert.Equal(t, "image/webp", mimeFromContentType("image/webp; charset=binary"))
	assert.Equal(t, "image/jpeg", mimeFromContentType(";;;"))
}

// End to end over real HTTP with the production fetcher, transcoder and local publisher.
func TestImportEndToEnd(t *testing.T) {
	var pngBuf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	require.NoError(t, png.Encode(&pngBuf, img))

	mux := http.NewServeMux()
	mux.HandleFunc("/course", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>River Rescue</title><meta name="description" content="Swiftwater course">
<meta property="og:image" content="/img/hero.png"></head><body><img src="img/missing.png"><img src="/img/hero.png"></body></html>`))
	})
	mux.HandleFunc("/img/hero.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBuf.Bytes())
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewImportService(Deps{
		Fetcher:    fetcher.NewHTTPFetcher(fetcher.Options{Timeout: 5 * time.Second}),
		Extractor:  extractor.NewExtractor(5),
		Transcoder: processor.NewImageProcessor(processor.Options{}),
		Publisher:  storage.NewLocalPublisher(storage.NewFileStorage(t.TempDir()), "http://static.test"),
	}, ImportServiceConfig{Timeout: 10 * time.Second})

	draft, err := svc.Import(context.Background(), server.URL+"/course")
	require.NoError(t, err)

	assert.Equal(t, "River Rescue", draft.Title)
	assert.Equal(t, "Swiftwater course", draft.Description)
	require.Len(t, draft.PhotoURL, 1)
	assert.True(t, strings.HasPrefix(draft.PhotoURL[0], "http://static.test/imports/"))
	assert.True(t, strings.HasSuffix(draft.PhotoURL[0], "-imported.jpg"))
	assert.Zero(t, draft.Price)
	assert.Zero(t, draft.Duration)
	assert.Empty(t, draft.Difficulty)
	assert.Empty(t, draft.Location)
	assert.Empty(t, draft.CourseType)
}

func TestImportEndToEndPageNotFound(t *testing.T) {
	imageRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) { imageRequests++ })
	mux.HandleFunc("/course", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<img src="/img/a.png">`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewImportService(Deps{
		Fetcher:    fetcher.NewHTTPFetcher(fetcher.Options{}),
		Extractor:  extractor.NewExtractor(5),
		Transcoder: processor.NewImageProcessor(processor.Options{}),
		Publisher:  storage.NewLocalPublisher(storage.NewFileStorage(t.TempDir()), "http://static.test"),
	}, ImportServiceConfig{})

	_, err := svc.Import(context.Background(), server.URL+"/course")
	assert.ErrorIs(t, err, entity.ErrPageFetch)
	assert.Zero(t, imageRequests)
}
