package selection

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	mimeZip   = "application/zip"
	mimeOctet = "application/octet-stream"
)

// ResolveMimeType returns the MIME type for a file. A specific declared type (as sent by
// a browser) is trusted; a missing or generic one is resolved from the content, then from
// the file extension.
func ResolveMimeType(declared, fileName string, data []byte) string {
	clean := cleanMimeType(declared)
	if clean != "" && clean != mimeOctet && clean != mimeZip {
		return clean
	}

	detected := cleanMimeType(mimetype.Detect(data).String())
	switch {
	case detected == MimePDF, detected == MimeDOCX:
		return detected
	case detected == mimeZip || clean == mimeZip:
		if mapped := mapOOXMLFromZip(data); mapped != "" {
			return mapped
		}
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		if detected == mimeOctet || detected == "" {
			return MimePDF
		}
	case ".docx":
		if detected == mimeOctet || detected == mimeZip || detected == "" {
			return MimeDOCX
		}
	}

	if clean != "" {
		return clean
	}
	return detected
}

// AcceptedCV reports whether mimeType may be submitted as a CV.
func AcceptedCV(mimeType string) bool {
	switch cleanMimeType(mimeType) {
	case MimePDF, MimeDOCX:
		return true
	default:
		return false
	}
}

// AcceptedJobDescription reports whether mimeType may be submitted as a job description.
func AcceptedJobDescription(mimeType string) bool {
	return cleanMimeType(mimeType) == MimePDF
}

func cleanMimeType(raw string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(raw, ";")[0]))
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			return MimeDOCX
		}
	}
	return ""
}
