package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"classattend/internal/apperr"
	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/httpmiddleware"
	"classattend/internal/metrics"
	"classattend/internal/roster"
	"classattend/internal/store"
)

type handlers struct {
	logger     *slog.Logger
	db         *store.DB
	redis      *store.Redis
	auth       *auth.Service
	roster     *roster.Service
	attendance *attendance.Service
	metrics    *metrics.Collector
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Type       string `json:"type"`
}

type createStudentRequest struct {
	Name      string `json:"name" binding:"required"`
	Roll      int    `json:"roll" binding:"required,gt=0"`
	ClassName string `json:"class_name" binding:"required"`
}

type recordRequest struct {
	Date      string               `json:"date" binding:"required,isodate"`
	ClassName string               `json:"class_name" binding:"required"`
	Records   []recordRequestEntry `json:"records" binding:"required,dive"`
}

type recordRequestEntry struct {
	StudentID int64  `json:"student_id" binding:"required,gt=0"`
	Status    string `json:"status" binding:"required,oneof=present absent"`
}

// fail writes err as {"error": msg}. Internal failures are logged with
// their cause and reach the client only as "internal".
func (h *handlers) fail(c *gin.Context, err error) {
	if apperr.IsInternal(err) {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			"error", err,
			"path", c.Request.URL.Path,
			"request_id", httpmiddleware.RequestIDFrom(c),
		)
	}
	c.AbortWithStatusJSON(apperr.Status(err), gin.H{"error": apperr.Message(err)})
}

// badBody turns a binding failure into a bad request naming the first
// offending field when validation, not decoding, failed.
func badBody(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: invalid %s", apperr.ErrBadRequest, verrs[0].Field())
	}
	return fmt.Errorf("%w: malformed JSON body", apperr.ErrBadRequest)
}

func (h *handlers) health(c *gin.Context) {
	ctx := c.Request.Context()
	dbOK := h.db.Healthy(ctx)
	redisState := "disabled"
	if h.redis != nil {
		redisState = "down"
		if h.redis.Healthy(ctx) {
			redisState = "ok"
		}
	}

	status, state := http.StatusOK, "ok"
	if !dbOK || redisState == "down" {
		status, state = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(status, gin.H{"status": state, "db": dbOK, "redis": redisState})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badBody(err))
		return
	}

	session, err := h.auth.Authenticate(c.Request.Context(), req.Identifier, req.Password, req.Type)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			h.metrics.RecordLogin("invalid")
		} else {
			h.metrics.RecordLogin("error")
		}
		h.fail(c, err)
		return
	}
	h.metrics.RecordLogin("success")
	c.JSON(http.StatusOK, session)
}

func (h *handlers) me(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)
	c.JSON(http.StatusOK, p)
}

func (h *handlers) listClasses(c *gin.Context) {
	classes, err := h.roster.Classes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *handlers) listStudents(c *gin.Context) {
	students, err := h.roster.Students(c.Request.Context(), c.Query("class"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *handlers) createStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badBody(err))
		return
	}
	id, err := h.roster.CreateStudent(c.Request.Context(), req.Name, req.Roll, req.ClassName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *handlers) recordAttendance(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badBody(err))
		return
	}
	entries := make([]attendance.Entry, 0, len(req.Records))
	for _, r := range req.Records {
		entries = append(entries, attendance.Entry{StudentID: r.StudentID, Status: attendance.Status(r.Status)})
	}
	if err := h.attendance.Record(c.Request.Context(), req.Date, req.ClassName, entries); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handlers) listAttendance(c *gin.Context) {
	rows, err := h.attendance.List(c.Request.Context(), attendance.Filter{
		Date:  c.Query("date"),
		Class: c.Query("class"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *handlers) classReport(c *gin.Context) {
	report, err := h.attendance.ClassReport(c.Request.Context(), c.Param("className"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
