// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	engagementErrors "github.com/qolzam/telar/apps/social/engagement/errors"
	"github.com/qolzam/telar/apps/social/engagement/models"
	"github.com/qolzam/telar/apps/social/engagement/services"
	"github.com/qolzam/telar/apps/social/internal/globalid"
	"github.com/qolzam/telar/apps/social/internal/middleware/authjwt"
	"github.com/qolzam/telar/apps/social/internal/server"
	postsModels "github.com/qolzam/telar/apps/social/posts/models"
)

// EngagementHandler handles comment and interaction requests
type EngagementHandler struct {
	gateway services.PostMutationGateway
	codec   globalid.Codec
}

// NewEngagementHandler creates a new EngagementHandler with injected dependencies
func NewEngagementHandler(gateway services.PostMutationGateway, codec globalid.Codec) *EngagementHandler {
	return &EngagementHandler{gateway: gateway, codec: codec}
}

// CommentResponse is the body returned by AddComment
type CommentResponse struct {
	Comment models.CommentResponse   `json:"comment"`
	Post    postsModels.PostResponse `json:"post"`
}

// InteractionResponse is the body returned by ToggleInteraction
type InteractionResponse struct {
	Interaction models.InteractionResponse `json:"interaction"`
	Post        postsModels.PostResponse   `json:"post"`
	Created     bool                       `json:"created"`
}

// RemovalResponse is the body returned by RemoveInteraction
type RemovalResponse struct {
	Removed bool                     `json:"removed"`
	Post    postsModels.PostResponse `json:"post"`
}

// AddComment handles POST /posts/:postId/comments
// Body: {"content": "..."}
func (h *EngagementHandler) AddComment(c *fiber.Ctx) error {
	var req models.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return engagementErrors.HandleInvalidRequestError(c, "Invalid request body")
	}

	res, err := h.gateway.AddComment(c.UserContext(), authjwt.UserFromLocals(c), server.PathParam(c, "postId"), req.Content)
	if err != nil {
		return engagementErrors.HandleServiceError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(CommentResponse{
		Comment: res.Comment.ToResponse(h.codec),
		Post:    res.Post.ToResponse(h.codec),
	})
}

// ToggleInteraction handles POST /posts/:postId/interactions
// Body: {"kind": "like"} or {"kind": "share"}. 201 when recorded, 200 when it already existed.
func (h *EngagementHandler) ToggleInteraction(c *fiber.Ctx) error {
	var req models.RecordInteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return engagementErrors.HandleInvalidRequestError(c, "Invalid request body")
	}

	res, err := h.gateway.ToggleInteraction(c.UserContext(), authjwt.UserFromLocals(c), server.PathParam(c, "postId"), req.Kind)
	if err != nil {
		return engagementErrors.HandleServiceError(c, err)
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(InteractionResponse{
		Interaction: res.Interaction.ToResponse(h.codec),
		Post:        res.Post.ToResponse(h.codec),
		Created:     res.Created,
	})
}

// RemoveInteraction handles DELETE /posts/:postId/interactions/:kind
func (h *EngagementHandler) RemoveInteraction(c *fiber.Ctx) error {
	res, err := h.gateway.RemoveInteraction(c.UserContext(), authjwt.UserFromLocals(c), server.PathParam(c, "postId"), c.Params("kind"))
	if err != nil {
		return engagementErrors.HandleServiceError(c, err)
	}

	return c.JSON(RemovalResponse{
		Removed: res.Removed,
		Post:    res.Post.ToResponse(h.codec),
	})
}

// ResyncPost handles POST /posts/:postId/resync (admin)
func (h *EngagementHandler) ResyncPost(c *fiber.Ctx) error {
	post, err := h.gateway.ResyncPost(c.UserContext(), server.PathParam(c, "postId"))
	if err != nil {
		return engagementErrors.HandleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"post": post.ToResponse(h.codec)})
}
