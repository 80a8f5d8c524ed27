package http

import (
	authhttp "timeline/internal/auth/adapter/http"
	sessionhttp "timeline/internal/session/adapter/http"
	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/i18n"
	"timeline/internal/shared/logger"
	"timeline/internal/timeline/domain/model"
	"timeline/internal/timeline/usecase"
	"timeline/internal/web"

	"github.com/gofiber/fiber/v2"
)

// TimelinePath is the timeline page and its post target.
const TimelinePath = "/timeline"

// TimelineHandler serves the timeline page, post form and JSON feed.
type TimelineHandler struct {
	usecase  usecase.PostUsecaseInterface
	session  *sessionhttp.Middleware
	renderer *web.Renderer
	log      logger.Logger
}

// NewTimelineHandler creates the handler.
func NewTimelineHandler(
	uc usecase.PostUsecaseInterface,
	session *sessionhttp.Middleware,
	renderer *web.Renderer,
	log logger.Logger,
) *TimelineHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &TimelineHandler{
		usecase:  uc,
		session:  session,
		renderer: renderer,
		log:      log.WithComponent("timeline"),
	}
}

// RegisterRoutes mounts the timeline routes behind auth. CSRF is enforced by the global session
// middleware.
func (h *TimelineHandler) RegisterRoutes(router fiber.Router, auth *authhttp.AuthMiddleware) {
	router.Get(TimelinePath, auth.Protect(), h.Page)
	router.Post(TimelinePath, auth.Protect(), h.CreatePost)
	router.Get(TimelinePath+".json", auth.ProtectAPI(), h.ListJSON)
}

// Page renders the post form and the newest entries.
func (h *TimelineHandler) Page(c *fiber.Ctx) error {
	page, err := h.newPage(c)
	if err != nil {
		return err
	}
	if c.Query("posted") != "" {
		page.Notice = i18n.KeyPostSuccess
	}
	return h.render(c, fiber.StatusOK, page)
}

// CreatePost handles the post form.
func (h *TimelineHandler) CreatePost(c *fiber.Ctx) error {
	user := authhttp.CurrentUser(c)
	if user == nil {
		return c.Redirect(authhttp.LoginPath, fiber.StatusFound)
	}

	body := c.FormValue("body")
	_, err := h.usecase.CreatePost(c.UserContext(), usecase.CreatePostRequest{
		Author: model.Author{
			ID:           user.ID,
			Name:         user.Name,
			IconFilename: user.IconFilename,
		},
		Body:        body,
		ImageBase64: c.FormValue("image_base64"),
	})
	if err == nil {
		return c.Redirect(TimelinePath+"?posted=1", fiber.StatusSeeOther)
	}
	if !sharederrors.IsValidation(err) {
		return err
	}

	page, pageErr := h.newPage(c)
	if pageErr != nil {
		return pageErr
	}
	for _, f := range sharederrors.FieldErrors(err) {
		if _, ok := page.FieldErrors[f.Field]; !ok {
			page.FieldErrors[f.Field] = f.Key
		}
	}
	page.Form["body"] = body
	return h.render(c, fiber.StatusBadRequest, page)
}

// ListJSON returns the timeline feed.
func (h *TimelineHandler) ListJSON(c *fiber.Ctx) error {
	entries, err := h.usecase.ListTimeline(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"entries": entries,
	})
}

// render loads the entries into page. A failed load still shows the form with an error.
func (h *TimelineHandler) render(c *fiber.Ctx, status int, page web.PageData) error {
	entries, err := h.usecase.ListTimeline(c.UserContext())
	if err != nil {
		if !sharederrors.IsInfrastructure(err) {
			return err
		}
		h.log.WithContext(c.UserContext()).Errorf("Failed to load timeline: %v", err)
		page.Error = i18n.KeyTimelineLoadFailed
		entries = []usecase.EntryView{}
	}
	page.Content = entries
	return h.renderer.Render(c, status, web.PageTimeline, page)
}

func (h *TimelineHandler) newPage(c *fiber.Ctx) (web.PageData, error) {
	page := web.NewPage(c, i18n.KeyPageTimelineTitle)
	token, err := h.session.IssueToken(c)
	if err != nil {
		return page, err
	}
	page.CSRFToken = token
	if user := authhttp.CurrentUser(c); user != nil {
		page.User = &web.ViewUser{ID: user.ID, Name: user.Name}
	}
	return page, nil
}
