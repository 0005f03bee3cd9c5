package models

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	FileType     string `json:"file_type"`
}

type EvaluateRequest struct {
	JobTitle          string `json:"job_title" validate:"required"`
	CVDocumentID      string `json:"cv_document_id" validate:"required,uuid"`
	ProjectDocumentID string `json:"project_document_id" validate:"required,uuid"`
}

type EvaluateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ResultResponse is the poll view of a job: result only when completed,
// error only when failed.
type ResultResponse struct {
	ID     string            `json:"id"`
	Status string            `json:"status"`
	Result *EvaluationResult `json:"result,omitempty"`
	Error  *string           `json:"error,omitempty"`
}

// EvaluationResult aggregates the three stage outputs of a completed job.
type EvaluationResult struct {
	CVMatchRate     float64 `json:"cv_match_rate"`
	CVFeedback      string  `json:"cv_feedback"`
	ProjectScore    float64 `json:"project_score"`
	ProjectFeedback string  `json:"project_feedback"`
	OverallSummary  string  `json:"overall_summary"`
}

// DocumentSummary describes one reference-corpus source in the vector
// index.
type DocumentSummary struct {
	SourceName string `json:"source_name"`
	ChunkCount int    `json:"chunk_count"`
}

type IngestResponse struct {
	Message     string `json:"message"`
	SourceName  string `json:"source_name"`
	ChunksAdded int    `json:"chunks_added"`
}
