package reporter

// troubleshootingHints maps each error kind to a static operator-facing hint,
// logged alongside the first occurrence of a failure burst.
var troubleshootingHints = map[ErrorKind]string{
	SourceConnectionFailed: "Check camera connections. Ensure the capture device is powered on and not in use by another application.",
	ModelLoadFailed:        "Ensure the detection model file is available at the configured path.",
	FrameProcessingFailed:  "This may be a temporary issue. The system will attempt to continue processing.",
	RenderFailed:           "Check display settings and ensure the system is allowed to create windows.",
	ResourceExhausted:      "Close other applications to free up memory, or restart the application.",
	Unknown:                "An unexpected error occurred. Check logs for more details.",
}

// Hint returns the troubleshooting hint for a kind, or "" when none exists.
func Hint(kind ErrorKind) string {
	return troubleshootingHints[kind]
}
