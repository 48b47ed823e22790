package models

// File is a user-selected document held in memory until the owning
// identity exists and it can be uploaded.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// PendingDocument pairs a staged file with the document type it was
// staged for.
type PendingDocument struct {
	DocumentType string
	File         File
}

// UploadedDocumentRef is produced for each staged file once the upload
// to object storage succeeds. It only ever exists after the owning
// identity has been created.
type UploadedDocumentRef struct {
	URL          string `json:"url"`
	StoragePath  string `json:"storage_path"`
	OriginalName string `json:"original_name"`
}
