package m

// Headers is what the fetch pipeline learned once the response headers arrived.
type Headers struct {
	StatusCode    int
	ContentLength int64 // -1 when unknown
	ContentType   string
	MimeType      string // media type without parameters, lower case
	Filename      string
}

type FetchResult struct {
	Headers
	Data []byte
}
