package m

// ContentType is the current hypothesis about what a URL points at.
type ContentType int

const (
	ContentUnknown ContentType = iota
	ContentUnsupported
	ContentImage
)

func (t ContentType) String() string {
	switch t {
	case ContentUnknown:
		return "unknown"
	case ContentUnsupported:
		return "unsupported"
	case ContentImage:
		return "image"
	default:
		return "invalid"
	}
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateText
	StateImage
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateText:
		return "text"
	case StateImage:
		return "image"
	default:
		return "invalid"
	}
}
