package selection

import "errors"

// ErrValidation is returned when a file is rejected for the job description field.
var ErrValidation = errors.New("validation error")

const (
	// JobDescriptionTypeMessage is shown next to the job description input.
	JobDescriptionTypeMessage = "Job description must be a PDF file"
	// IgnoredFilesMessage is shown when SetCVs drops files.
	IgnoredFilesMessage = "Some files were ignored. Only PDF and DOCX files are accepted."
)
