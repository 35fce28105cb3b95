package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"blogger/domain"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizerStrict = bluemonday.StrictPolicy()
	sanitizerUGC    = bluemonday.UGCPolicy()
	bodyBinder      = &echo.DefaultBinder{}
)

func errNotFound() error {
	return echo.NewHTTPError(http.StatusNotFound, "Post not found")
}

// postID parses the :id path parameter. Anything that is not a base-10
// integer cannot name a post.
func postID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errNotFound()
	}
	return id, nil
}

func (h *Handler) GetPosts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.List(c.Request().Context()))
}

func (h *Handler) GetByID(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	p, err := h.Store.Get(c.Request().Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) NewPost(c echo.Context) error {
	var d domain.Draft
	if err := bodyBinder.BindBody(c, &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Error saving post").SetInternal(err)
	}
	p, err := h.Store.Create(c.Request().Context(), d)
	if errors.Is(err, domain.ErrInvalid) {
		return echo.NewHTTPError(http.StatusBadRequest, "Error saving post").SetInternal(err)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error saving post").SetInternal(err)
	}
	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/posts/%d", p.ID))
	return c.String(http.StatusCreated, "Post saved")
}

func (h *Handler) EditPost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	var patch domain.Patch
	if err := bodyBinder.BindBody(c, &patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Error updating post").SetInternal(err)
	}
	_, err = h.Store.Update(c.Request().Context(), id, patch)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound()
	case errors.Is(err, domain.ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, "Error updating post").SetInternal(err)
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Error updating post").SetInternal(err)
	}
	return c.String(http.StatusOK, "Post updated")
}

func (h *Handler) DeletePost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	err = h.Store.Delete(c.Request().Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error deleting post").SetInternal(err)
	}
	return c.String(http.StatusOK, "Post deleted")
}

type PostDTO struct {
	ID        int64
	Title     template.HTML
	Content   template.HTML
	CreatedAt string
}

// GetPostHTML renders a single post with its content treated as Markdown.
func (h *Handler) GetPostHTML(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	p, err := h.Store.Get(c.Request().Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "post-view.html", PostDTO{
		ID:        p.ID,
		Title:     template.HTML(sanitizerStrict.Sanitize(p.Title)),
		Content:   safeMd(p.Content),
		CreatedAt: p.CreatedAt.Format(time.DateOnly),
	})
}

func mdToHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	return markdown.Render(doc, renderer)
}

func safeMd(content string) template.HTML {
	return template.HTML(sanitizerUGC.SanitizeBytes(mdToHTML(content)))
}
