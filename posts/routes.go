package posts

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/telar/apps/social/posts/handlers"
)

// PostsHandlers holds all the handlers this router needs.
type PostsHandlers struct {
	PostHandler *handlers.PostHandler
}

// RegisterRoutes mounts the read side of /posts. Authentication is optional here;
// the auth middleware is installed on the router by the caller.
func RegisterRoutes(router fiber.Router, h *PostsHandlers) {
	group := router.Group("/posts")
	group.Get("/:postId", h.PostHandler.GetPost)
}
