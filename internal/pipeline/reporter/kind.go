package reporter

// ErrorKind classifies a pipeline failure. The set is closed: stats are kept
// in a fixed-size array indexed by kind.
type ErrorKind int

const (
	SourceConnectionFailed ErrorKind = iota
	ModelLoadFailed
	FrameProcessingFailed
	RenderFailed
	ResourceExhausted
	Unknown

	kindCount
)

func (k ErrorKind) String() string {
	switch k {
	case SourceConnectionFailed:
		return "source_connection_failed"
	case ModelLoadFailed:
		return "model_load_failed"
	case FrameProcessingFailed:
		return "frame_processing_failed"
	case RenderFailed:
		return "render_failed"
	case ResourceExhausted:
		return "resource_exhausted"
	default:
		return "unknown"
	}
}

// Kinds returns every error kind, in priority order (highest first). The
// order also serves as the tie-break when selecting a dominant kind.
func Kinds() []ErrorKind {
	return []ErrorKind{
		SourceConnectionFailed,
		ModelLoadFailed,
		FrameProcessingFailed,
		RenderFailed,
		ResourceExhausted,
		Unknown,
	}
}
