// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package engagement

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/telar/apps/social/engagement/handlers"
	"github.com/qolzam/telar/apps/social/internal/middleware/admin"
)

// EngagementHandlers holds all the handlers this router needs
type EngagementHandlers struct {
	EngagementHandler *handlers.EngagementHandler
}

// RegisterRoutes mounts the mutation side of /posts. The router must already carry the
// auth middleware; anonymous callers reach the gateway and are rejected there.
func RegisterRoutes(router fiber.Router, h *EngagementHandlers) {
	group := router.Group("/posts/:postId")

	group.Post("/comments", h.EngagementHandler.AddComment)
	group.Post("/interactions", h.EngagementHandler.ToggleInteraction)
	group.Delete("/interactions/:kind", h.EngagementHandler.RemoveInteraction)

	// --- Admin Routes ---
	group.Post("/resync", admin.New(admin.Config{}), h.EngagementHandler.ResyncPost)
}
