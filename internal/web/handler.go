package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvmatch-console/internal/analysis"
	"cvmatch-console/internal/results"
	"cvmatch-console/internal/selection"
	"cvmatch-console/internal/services/health"
	"cvmatch-console/internal/session"
	"cvmatch-console/internal/shared/server/middleware"
	"cvmatch-console/internal/shared/server/respond"
	"cvmatch-console/internal/views"
)

// Handler serves the console pages and the JSON state API.
type Handler struct {
	Ctrl           *session.Controller
	Health         *health.Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(ctrl *session.Controller, healthSvc *health.Service, maxUploadBytes int64) *Handler {
	return &Handler{Ctrl: ctrl, Health: healthSvc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the console routes. analyzeGuard runs before
// submissions and may be nil.
func (h *Handler) RegisterRoutes(r gin.IRoutes, analyzeGuard gin.HandlerFunc) {
	r.GET("/", h.index)
	r.POST("/selection/job-description", h.setJobDescription)
	r.POST("/selection/job-description/clear", h.clearJobDescription)
	r.POST("/selection/cvs", h.setCVs)
	if analyzeGuard != nil {
		r.POST("/analyze", analyzeGuard, h.analyze)
	} else {
		r.POST("/analyze", h.analyze)
	}
	r.POST("/analyze/cancel", h.cancel)
	r.POST("/results/sort", h.sort)
	r.POST("/results/select/:id", h.selectCandidate)
	r.POST("/results/close", h.closeDetail)
	r.GET("/events", h.events)
}

// RegisterAPI attaches the JSON routes to the /api/v1 group.
func (h *Handler) RegisterAPI(rg *gin.RouterGroup) {
	rg.GET("/health", h.health)
	rg.GET("/state", h.state)
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, indexTemplate, views.BuildPage(h.Ctrl.Snapshot()))
}

func (h *Handler) state(c *gin.Context) {
	respond.OK(c, views.BuildPage(h.Ctrl.Snapshot()))
}

func (h *Handler) health(c *gin.Context) {
	respond.OK(c, h.Health.Status())
}

func (h *Handler) setJobDescription(c *gin.Context) {
	files, err := h.formFiles(c, "job_description")
	if err == nil && len(files) == 0 {
		err = fmt.Errorf("%w: %s", analysis.ErrMissingInput, analysis.MissingJobDescriptionMessage)
	}
	if err != nil {
		h.Ctrl.Notify(session.Messages{JobDescription: analysis.UserMessage(err)})
		h.fail(c, err)
		return
	}
	if err := h.Ctrl.SetJobDescription(files[0]); err != nil {
		h.fail(c, err)
		return
	}
	h.done(c, http.StatusOK)
}

func (h *Handler) clearJobDescription(c *gin.Context) {
	h.Ctrl.ClearJobDescription()
	h.done(c, http.StatusOK)
}

func (h *Handler) setCVs(c *gin.Context) {
	files, err := h.formFiles(c, "cvs", "cvs[]")
	if err != nil {
		h.Ctrl.Notify(session.Messages{CVs: analysis.UserMessage(err)})
		h.fail(c, err)
		return
	}
	ignored := h.Ctrl.SetCVs(files)
	if wantsJSON(c) {
		respond.OK(c, gin.H{
			"selection": h.Ctrl.Snapshot().Selection,
			"ignored":   nonNil(ignored),
		})
		return
	}
	h.done(c, http.StatusOK)
}

func (h *Handler) analyze(c *gin.Context) {
	seq, err := h.Ctrl.Start()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.SubmissionSeqKey, seq)
	if wantsJSON(c) {
		respond.Accepted(c, gin.H{"seq": seq})
		return
	}
	h.done(c, http.StatusAccepted)
}

func (h *Handler) cancel(c *gin.Context) {
	canceled := h.Ctrl.Cancel()
	if wantsJSON(c) {
		respond.OK(c, gin.H{"canceled": canceled})
		return
	}
	h.done(c, http.StatusOK)
}

func (h *Handler) sort(c *gin.Context) {
	key := results.SortByScore
	if raw := c.PostForm("key"); raw != "" {
		parsed, ok := results.ParseSortKey(raw)
		if !ok {
			h.fail(c, fmt.Errorf("%w: unknown sort key %q", selection.ErrValidation, raw))
			return
		}
		key = parsed
	}
	if raw := c.PostForm("direction"); raw != "" {
		dir, ok := results.ParseDirection(raw)
		if !ok {
			h.fail(c, fmt.Errorf("%w: unknown sort direction %q", selection.ErrValidation, raw))
			return
		}
		h.Ctrl.Sort(key, dir)
	} else {
		h.Ctrl.ToggleSort(key)
	}
	h.done(c, http.StatusOK)
}

func (h *Handler) selectCandidate(c *gin.Context) {
	h.Ctrl.Select(c.Param("id"))
	h.done(c, http.StatusOK)
}

func (h *Handler) closeDetail(c *gin.Context) {
	h.Ctrl.ClearSelection()
	h.done(c, http.StatusOK)
}

// formFiles reads every uploaded file under the given field names, in order.
func (h *Handler) formFiles(c *gin.Context, fields ...string) ([]selection.File, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", selection.ErrValidation, h.MaxUploadBytes)
		}
		return nil, fmt.Errorf("%w: unreadable upload: %v", selection.ErrValidation, err)
	}

	var out []selection.File
	for _, field := range fields {
		for _, fh := range form.File[field] {
			f, err := readPart(fh, h.MaxUploadBytes)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func readPart(fh *multipart.FileHeader, limit int64) (selection.File, error) {
	src, err := fh.Open()
	if err != nil {
		return selection.File{}, fmt.Errorf("%w: unable to read %s", selection.ErrValidation, fh.Filename)
	}
	defer src.Close()
	return selection.ReadFrom(fh.Filename, fh.Header.Get("Content-Type"), src, limit)
}

// done finishes a form post: JSON clients get the page model, browsers are
// sent back to the console.
func (h *Handler) done(c *gin.Context, status int) {
	if wantsJSON(c) {
		respond.JSON(c, status, views.BuildPage(h.Ctrl.Snapshot()))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// fail reports err. Browsers see it on the page through the controller's
// messages, so only JSON clients get an error body.
func (h *Handler) fail(c *gin.Context, err error) {
	code := analysis.Code(err)
	if !wantsJSON(c) && (code == analysis.ErrorCodeValidation || code == analysis.ErrorCodeMissingInput) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	respond.Error(c, statusFor(code), code, analysis.UserMessage(err), nil)
}

func statusFor(code string) int {
	switch code {
	case analysis.ErrorCodeValidation, analysis.ErrorCodeMissingInput:
		return http.StatusUnprocessableEntity
	case analysis.ErrorCodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
