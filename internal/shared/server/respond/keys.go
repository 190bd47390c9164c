package respond

// Context keys shared by the middleware and the error envelope.
const (
	// RequestIDKey holds the request id set by middleware.RequestID.
	RequestIDKey = "requestId"
	// SubmissionSeqKey is set by handlers that start or act on an analysis.
	SubmissionSeqKey = "submissionSeq"
)
