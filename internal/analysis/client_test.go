package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvmatch-console/internal/selection"
)

func testFiles() (*selection.File, []selection.File) {
	jd := selection.NewFile("jd.pdf", selection.MimePDF, []byte("%PDF-jd"))
	cvs := []selection.File{
		selection.NewFile("b.pdf", selection.MimePDF, []byte("cv-b")),
		selection.NewFile("a.docx", selection.MimeDOCX, []byte("cv-a")),
	}
	return &jd, cvs
}

func TestSubmitMissingInputMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := NewClientWithHTTP(srv.URL, srv.Client())
	jd, cvs := testFiles()

	_, err := client.Submit(context.Background(), nil, cvs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingInput))
	assert.Contains(t, err.Error(), MissingJobDescriptionMessage)

	_, err = client.Submit(context.Background(), jd, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingInput))
	assert.Contains(t, err.Error(), MissingCVsMessage)
	assert.Equal(t, ErrorCodeMissingInput, Code(err))

	assert.Equal(t, int32(0), hits.Load())
}

func TestSubmitEncodesMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		jds := r.MultipartForm.File["job_description"]
		require.Len(t, jds, 1)
		assert.Equal(t, "jd.pdf", jds[0].Filename)
		assert.Equal(t, selection.MimePDF, jds[0].Header.Get("Content-Type"))

		cvs := r.MultipartForm.File["cvs[]"]
		require.Len(t, cvs, 2)
		assert.Equal(t, "b.pdf", cvs[0].Filename)
		assert.Equal(t, "a.docx", cvs[1].Filename)
		assert.Equal(t, selection.MimeDOCX, cvs[1].Header.Get("Content-Type"))
		f, err := cvs[1].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "cv-a", string(data))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"progress\": 50, \"current\": 1, \"total\": 2}\n\n")
		fmt.Fprint(w, "data: {\"progress\": 100, \"current\": 2, \"total\": 2}\n\n")
		fmt.Fprint(w, "data: {\"progress\": 100, \"results\": [{\"participant_id\": \"1\", \"candidate_name\": \"B\", \"score\": 80, \"reasons\": [\"x\"]}, {\"participant_id\": \"2\", \"candidate_name\": \"A\", \"score\": 60, \"reasons\": []}]}\n\n")
	}))
	defer srv.Close()

	client := NewClientWithHTTP(srv.URL+"/", srv.Client())
	assert.Equal(t, srv.URL+"/analyze", client.Endpoint())

	jd, cvs := testFiles()
	stream, err := client.Submit(context.Background(), jd, cvs)
	require.NoError(t, err)

	var seen []int
	results, err := stream.Results(func(p Progress) { seen = append(seen, p.Percent) })
	require.NoError(t, err)
	assert.Equal(t, []int{50, 100}, seen)
	require.Len(t, results, 2)
	assert.Equal(t, "B", results[0].CandidateName)
}

func TestSubmitNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "Missing job description or CVs"}`)
	}))
	defer srv.Close()

	jd, cvs := testFiles()
	_, err := NewClientWithHTTP(srv.URL, srv.Client()).Submit(context.Background(), jd, cvs)
	require.Error(t, err)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusBadRequest, terr.StatusCode)
	assert.Equal(t, "Missing job description or CVs", terr.Message)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, ErrorCodeTransport, Code(err))
}

func TestSubmitNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	jd, cvs := testFiles()
	_, err := NewClient(url, time.Second, 0).Submit(context.Background(), jd, cvs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestSubmitCancelDuringStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"progress\": 25, \"current\": 1, \"total\": 4}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jd, cvs := testFiles()
	stream, err := NewClientWithHTTP(srv.URL, srv.Client()).Submit(ctx, jd, cvs)
	require.NoError(t, err)
	defer stream.Close()

	ev, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, 25, ev.Progress.Percent)

	cancel()
	_, err = stream.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, ErrorCodeCanceled, Code(err))
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: fmt.Errorf("x: %w", selection.ErrValidation), want: ErrorCodeValidation},
		{err: fmt.Errorf("x: %w", ErrProtocol), want: ErrorCodeProtocol},
		{err: ErrStreamIncomplete, want: ErrorCodeStreamIncomplete},
		{err: context.DeadlineExceeded, want: ErrorCodeCanceled},
		{err: errors.New("boom"), want: ErrorCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	jd, _ := testFiles()
	assert.Equal(t, MissingCVsMessage, UserMessage(CheckInputs(jd, nil)))
	assert.Equal(t, MissingJobDescriptionMessage, UserMessage(CheckInputs(nil, nil)))
	assert.Equal(t, "Analysis canceled", UserMessage(context.Canceled))
	assert.Equal(t, selection.JobDescriptionTypeMessage,
		UserMessage(fmt.Errorf("%w: %s", selection.ErrValidation, selection.JobDescriptionTypeMessage)))
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "No CVs uploaded", UserMessage(&TransportError{StatusCode: 400, Message: "No CVs uploaded"}))
	assert.Equal(t, "analysis endpoint returned 502", UserMessage(&TransportError{StatusCode: 502}))
}
