package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"cvmatch-console/internal/selection"
	"cvmatch-console/internal/shared/telemetry"
)

const (
	analyzePath          = "/analyze"
	fieldJobDescription  = "job_description"
	fieldCVs             = "cvs[]"
	maxErrorBodyBytes    = 64 << 10
	defaultDialTimeout   = 10 * time.Second
	defaultHeaderTimeout = 10 * time.Second
)

// Submitter starts an analysis and returns its event stream.
type Submitter interface {
	Submit(ctx context.Context, jobDescription *selection.File, cvs []selection.File) (*Stream, error)
}

// Client posts selections to the remote analysis endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client for baseURL. headerTimeout bounds the wait for
// response headers; timeout bounds the whole exchange and is usually 0 because
// progress streams run as long as the batch.
func NewClient(baseURL string, headerTimeout, timeout time.Duration) *Client {
	if headerTimeout <= 0 {
		headerTimeout = defaultHeaderTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout}).DialContext,
		ResponseHeaderTimeout: headerTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	return NewClientWithHTTP(baseURL, &http.Client{Transport: transport, Timeout: timeout})
}

// NewClientWithHTTP builds a Client around an existing http.Client.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: hc,
	}
}

// Endpoint returns the URL analyses are posted to.
func (c *Client) Endpoint() string {
	return c.baseURL + analyzePath
}

// Submit validates the inputs, posts them as multipart/form-data and returns
// the response stream. The caller must drain or Close the stream. Cancelling
// ctx aborts both the request and subsequent reads.
func (c *Client) Submit(ctx context.Context, jobDescription *selection.File, cvs []selection.File) (*Stream, error) {
	if err := CheckInputs(jobDescription, cvs); err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipart(*jobDescription, cvs)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream, application/json")

	telemetry.Info("analysis.submit", map[string]any{
		"endpoint":        c.Endpoint(),
		"job_description": jobDescription.Name,
		"cv_count":        len(cvs),
		"bytes":           len(body),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		terr := &TransportError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		telemetry.Warn("analysis.rejected", map[string]any{
			"status":  resp.StatusCode,
			"message": terr.Message,
		})
		return nil, terr
	}

	return NewStream(ctx, resp.Body, resp.Header.Get("Content-Type")), nil
}

// CheckInputs reports ErrMissingInput when a submission lacks a job
// description or CVs.
func CheckInputs(jobDescription *selection.File, cvs []selection.File) error {
	if jobDescription == nil {
		return fmt.Errorf("%w: %s", ErrMissingInput, MissingJobDescriptionMessage)
	}
	if len(cvs) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingInput, MissingCVsMessage)
	}
	return nil
}

func encodeMultipart(jobDescription selection.File, cvs []selection.File) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeFilePart(mw, fieldJobDescription, jobDescription); err != nil {
		return nil, "", err
	}
	for _, cv := range cvs {
		if err := writeFilePart(mw, fieldCVs, cv); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, field string, f selection.File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
	contentType := f.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f.Open())
	return err
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && len(payload.Error) > 0 {
		var msg string
		if json.Unmarshal(payload.Error, &msg) == nil {
			return strings.TrimSpace(msg)
		}
		// The console's own error envelope nests the message.
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &nested) == nil {
			return strings.TrimSpace(nested.Message)
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

var _ Submitter = (*Client)(nil)
