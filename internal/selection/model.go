package selection

import (
	"fmt"
	"strings"
)

// Model holds the job description and CVs chosen for the next submission.
// It is not safe for concurrent use; callers serialize access.
type Model struct {
	jobDescription *File
	cvs            []File
}

// SetJobDescription replaces the job description. Anything other than a PDF is
// rejected with ErrValidation and the previous choice is kept.
func (m *Model) SetJobDescription(f File) error {
	if !AcceptedJobDescription(f.MimeType) {
		return fmt.Errorf("%w: %s", ErrValidation, JobDescriptionTypeMessage)
	}
	jd := f
	m.jobDescription = &jd
	return nil
}

// ClearJobDescription removes the job description.
func (m *Model) ClearJobDescription() {
	m.jobDescription = nil
}

// SetCVs replaces the CV list with the accepted subset of files, in order.
// The names of dropped files are returned; a non-empty result means the caller
// should show IgnoredFilesMessage.
func (m *Model) SetCVs(files []File) []string {
	accepted := make([]File, 0, len(files))
	var ignored []string
	for _, f := range files {
		if AcceptedCV(f.MimeType) {
			accepted = append(accepted, f)
			continue
		}
		ignored = append(ignored, f.Name)
	}
	m.cvs = accepted
	return ignored
}

// JobDescription returns the current job description, if any.
func (m *Model) JobDescription() (File, bool) {
	if m.jobDescription == nil {
		return File{}, false
	}
	return *m.jobDescription, true
}

// CVs returns a copy of the current CV list.
func (m *Model) CVs() []File {
	out := make([]File, len(m.cvs))
	copy(out, m.cvs)
	return out
}

// Describe renders the selection for display.
func (m *Model) Describe() Description {
	d := Description{CVCount: len(m.cvs)}
	if m.jobDescription != nil {
		d.JobDescription = m.jobDescription.Name
		d.JobDescriptionPages = m.jobDescription.Pages
	}
	d.CVNames = make([]string, 0, len(m.cvs))
	d.CVPages = make([]int, 0, len(m.cvs))
	for _, cv := range m.cvs {
		d.CVNames = append(d.CVNames, cv.Name)
		d.CVPages = append(d.CVPages, cv.Pages)
	}
	return d
}

// Description is a display-oriented snapshot of a Model. Page counts are 0
// when unknown (DOCX, or a PDF the reader could not open).
type Description struct {
	JobDescription      string   `json:"job_description,omitempty"`
	JobDescriptionPages int      `json:"job_description_pages,omitempty"`
	CVNames             []string `json:"cv_names"`
	CVPages             []int    `json:"cv_pages"`
	CVCount             int      `json:"cv_count"`
}

// CVLabel is the heading of the selected CV list.
func (d Description) CVLabel() string {
	return fmt.Sprintf("Selected files (%d)", d.CVCount)
}

// JobDescriptionLabel is the job description name with its page count.
func (d Description) JobDescriptionLabel() string {
	if d.JobDescription == "" {
		return ""
	}
	return FileLabel(d.JobDescription, d.JobDescriptionPages)
}

// CVLabels lists the selected CVs with their page counts.
func (d Description) CVLabels() []string {
	out := make([]string, 0, len(d.CVNames))
	for i, name := range d.CVNames {
		pages := 0
		if i < len(d.CVPages) {
			pages = d.CVPages[i]
		}
		out = append(out, FileLabel(name, pages))
	}
	return out
}

// String is used by the command line client.
func (d Description) String() string {
	jd := d.JobDescriptionLabel()
	if jd == "" {
		jd = "(none)"
	}
	return fmt.Sprintf("Job description: %s\nCVs: %s", jd, strings.Join(d.CVLabels(), ", "))
}

// FileLabel formats "name (N pages)", or just the name when pages is unknown.
func FileLabel(name string, pages int) string {
	switch {
	case pages <= 0:
		return name
	case pages == 1:
		return name + " (1 page)"
	default:
		return fmt.Sprintf("%s (%d pages)", name, pages)
	}
}
