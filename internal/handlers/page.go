package handlers

import (
	"net/http"
	"net/url"
	"time"

	dom "studytodo/internal/domain"
	"studytodo/internal/dto"
	"studytodo/internal/listview"
	"studytodo/internal/logger"
	"studytodo/internal/middleware"
	"studytodo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Notices shown after a successful page action, keyed by the notice query value.
var notices = map[string]string{
	"added":   "Task added.",
	"done":    "Marked as done.",
	"deleted": "Task deleted.",
	"cleared": "Completed tasks cleared.",
}

// PageHandler renders the task list as HTML using the same filter, order and
// highlighting rules as the API clients, and handles the page's forms.
// Every successful form post redirects back to the list.
type PageHandler struct {
	svc *service.TaskService
	log logrus.FieldLogger
	now func() time.Time
}

func NewPageHandler(svc *service.TaskService, log logrus.FieldLogger) *PageHandler {
	return &PageHandler{svc: svc, log: log, now: time.Now}
}

type pageData struct {
	Filters []listview.Filter
	Types   []dom.TaskType
	View    listview.View
	Notice  string
	Error   string
}

func (h *PageHandler) Index(c *gin.Context) {
	filter, err := listview.ParseFilter(c.Query("filter"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	h.render(c, http.StatusOK, filter, notices[c.Query("notice")], "")
}

// Create handles the add form.
func (h *PageHandler) Create(c *gin.Context) {
	filter := formFilter(c)
	due, err := dto.ParseDue(c.PostForm("due"))
	if err != nil {
		h.fail(c, filter, "Error adding task", &service.ValidationError{Message: err.Error()})
		return
	}
	_, err = h.svc.Create(c.Request.Context(), service.CreateInput{
		Title:  c.PostForm("title"),
		Course: c.PostForm("course"),
		Type:   c.PostForm("type"),
		Due:    due,
	})
	if err != nil {
		h.fail(c, filter, "Error adding task", err)
		return
	}
	redirect(c, filter, "added")
}

func (h *PageHandler) MarkDone(c *gin.Context) {
	filter := formFilter(c)
	done := true
	if _, err := h.svc.Update(c.Request.Context(), c.Param("id"), service.UpdateInput{Done: &done}); err != nil {
		h.fail(c, filter, "Error marking task done", err)
		return
	}
	redirect(c, filter, "done")
}

func (h *PageHandler) Delete(c *gin.Context) {
	filter := formFilter(c)
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, filter, "Error deleting task", err)
		return
	}
	redirect(c, filter, "deleted")
}

func (h *PageHandler) ClearCompleted(c *gin.Context) {
	filter := formFilter(c)
	if _, err := h.svc.ClearCompleted(c.Request.Context()); err != nil {
		h.fail(c, filter, "Error clearing completed tasks", err)
		return
	}
	redirect(c, filter, "cleared")
}

func (h *PageHandler) render(c *gin.Context, status int, filter listview.Filter, notice, errMsg string) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		h.entry(c).WithError(err).Error("page list failed")
		c.String(http.StatusInternalServerError, "Server error")
		return
	}
	c.HTML(status, "index.html", pageData{
		Filters: listview.Filters,
		Types:   []dom.TaskType{dom.TypeAssignment, dom.TypeExam},
		View:    listview.Build(TasksToResponses(list), filter, h.now()),
		Notice:  notice,
		Error:   errMsg,
	})
}

// fail re-renders the list with the action's error message.
func (h *PageHandler) fail(c *gin.Context, filter listview.Filter, action string, err error) {
	status, msg, ok := errorStatus(err)
	if !ok {
		_ = c.Error(err)
		h.entry(c).WithError(err).Error("page action failed")
	}
	h.render(c, status, filter, "", action+": "+msg)
}

func (h *PageHandler) entry(c *gin.Context) logrus.FieldLogger {
	return logger.WithRequestID(h.log, middleware.GetRequestID(c))
}

// formFilter keeps the page's filter across a post; unknown values fall back
// to all.
func formFilter(c *gin.Context) listview.Filter {
	f, err := listview.ParseFilter(c.PostForm("filter"))
	if err != nil {
		return listview.FilterAll
	}
	return f
}

func redirect(c *gin.Context, filter listview.Filter, notice string) {
	q := url.Values{}
	q.Set("filter", string(filter))
	q.Set("notice", notice)
	c.Redirect(http.StatusSeeOther, "/?"+q.Encode())
}
