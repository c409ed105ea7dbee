package entity

type ImportRequest struct {
	URL string `json:"url"`
}

// ExtractedMetadata is what the extractor pulls out of a fetched page.
type ExtractedMetadata struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ImageCandidates []string `json:"image_candidates"`
	BaseURL         string   `json:"base_url"`
}

// CourseDraft is returned to the client for pre-filling the create course form.
// Price, duration, difficulty, location and course type are always empty here.
type CourseDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Duration    int      `json:"duration"`
	Difficulty  string   `json:"difficulty"`
	Location    string   `json:"location"`
	CourseType  string   `json:"course_type"`
	PhotoURL    []string `json:"photo_url"`
}

func NewCourseDraft(meta ExtractedMetadata, photos []string) *CourseDraft {
	if photos == nil {
		photos = []string{}
	}
	return &CourseDraft{
		Title:       meta.Title,
		Description: meta.Description,
		PhotoURL:    photos,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
