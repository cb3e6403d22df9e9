package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/schema"
	"github.com/qolzam/telar/apps/social/internal/globalid"
	"github.com/qolzam/telar/apps/social/internal/server"
	"github.com/qolzam/telar/apps/social/posts/errors"
	"github.com/qolzam/telar/apps/social/posts/models"
	"github.com/qolzam/telar/apps/social/posts/services"
)

// PostHandler serves post snapshots
type PostHandler struct {
	postService services.PostService
	codec       globalid.Codec
	decoder     *schema.Decoder
}

// NewPostHandler creates a new PostHandler with injected dependencies
func NewPostHandler(postService services.PostService, codec globalid.Codec) *PostHandler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &PostHandler{
		postService: postService,
		codec:       codec,
		decoder:     decoder,
	}
}

// GetPost handles GET /posts/:postId
func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	var query models.GetPostQuery
	if err := h.decodeQuery(c, &query); err != nil {
		return errors.HandleInvalidRequestError(c, "Invalid query parameters")
	}

	post, err := h.postService.GetPost(c.UserContext(), server.PathParam(c, "postId"), query.Fresh)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(post.ToResponse(h.codec))
}

func (h *PostHandler) decodeQuery(c *fiber.Ctx, dst interface{}) error {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return err
	}
	return h.decoder.Decode(dst, values)
}
