package common

// MaxInputChars caps every text-producing input path before it reaches
// the generation endpoint.
const MaxInputChars = 500_000

// MaxFileSizeBytes is the largest input file accepted for generation.
const MaxFileSizeBytes = 10 * 1024 * 1024

// Generation service endpoint paths, relative to the API base URL.
const (
	PathGenerateCards   = "/api/generate-cards"
	PathGenerateHint    = "/api/generate-hint"
	PathGenerateDetails = "/api/generate-details"
	PathFetchURLContent = "/api/fetch-url-content"
)

// ReaderURLPrefix is prepended to a page URL to obtain its readable text.
const ReaderURLPrefix = "https://r.jina.ai/"
