package dto

type CreateUploadResponse struct {
	JobID     string `json:"job_id"`
	UploadURL string `json:"upload_url"`
	Status    string `json:"status"`
}

type JobStatusResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url,omitempty"`
	Error     string `json:"error,omitempty"`
}
