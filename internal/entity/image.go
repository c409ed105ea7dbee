package entity

// ImageInput is handed to the transcoder for a single fetched candidate.
type ImageInput struct {
	Name         string
	Buffer       []byte
	Size         int
	Type         string
	TargetFormat string
}

type ProcessedImage struct {
	Buffer   []byte
	FileName string
	MimeType string
	Size     int
}

type ImageStage string

const (
	StageResolve ImageStage = "resolve"
	StageFetch   ImageStage = "fetch"
	StageProcess ImageStage = "process"
	StagePublish ImageStage = "publish"
)

// ImageResult records the outcome for one candidate image.
// A successful result has a PublishedURL and a nil Err.
type ImageResult struct {
	SourceURL    string
	PublishedURL string
	Stage        ImageStage
	Err          error
}

func (r ImageResult) OK() bool {
	return r.Err == nil && r.PublishedURL != ""
}

// PublishedURLs keeps the order in which candidates were attempted and skips failures.
func PublishedURLs(results []ImageResult) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.OK() {
			urls = append(urls, r.PublishedURL)
		}
	}
	return urls
}
