// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/internal/globalid"
)

// Comment is owned by its post and removed with it
type Comment struct {
	ObjectId    uuid.UUID `db:"id" json:"objectId"`
	PostId      uuid.UUID `db:"post_id" json:"postId"`
	OwnerUserId uuid.UUID `db:"owner_user_id" json:"ownerUserId"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// CommentResponse is the client view of a comment
type CommentResponse struct {
	ObjectId    string    `json:"objectId"`
	PostId      string    `json:"postId"`
	OwnerUserId string    `json:"ownerUserId"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c *Comment) ToResponse(codec globalid.Codec) CommentResponse {
	return CommentResponse{
		ObjectId:    c.ObjectId.String(),
		PostId:      codec.Encode(globalid.TypePost, c.PostId),
		OwnerUserId: codec.Encode(globalid.TypeUser, c.OwnerUserId),
		Content:     c.Content,
		CreatedAt:   c.CreatedAt,
	}
}

// AddCommentRequest is the body of POST /posts/:postId/comments
type AddCommentRequest struct {
	Content string `json:"content"`
}
