package models

import (
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/internal/globalid"
)

// Post is the aggregate carrying the denormalized engagement counters.
// LikesCount, CommentsCount and SharesCount always hold a full recount of their source rows.
type Post struct {
	ObjectId    uuid.UUID `json:"objectId" db:"id"`
	OwnerUserId uuid.UUID `json:"ownerUserId" db:"owner_user_id"`
	Content     string    `json:"content" db:"content"`

	LikesCount    int64 `json:"likesCount" db:"likes_count"`
	CommentsCount int64 `json:"commentsCount" db:"comments_count"`
	SharesCount   int64 `json:"sharesCount" db:"shares_count"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Counters returns the three counters in a comparable form
func (p *Post) Counters() Counters {
	return Counters{Likes: p.LikesCount, Comments: p.CommentsCount, Shares: p.SharesCount}
}

// Counters groups the denormalized counter values of a post
type Counters struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

// PostResponse is the client view of a post; ids are opaque
type PostResponse struct {
	ObjectId      string    `json:"objectId"`
	OwnerUserId   string    `json:"ownerUserId"`
	Content       string    `json:"content"`
	LikesCount    int64     `json:"likesCount"`
	CommentsCount int64     `json:"commentsCount"`
	SharesCount   int64     `json:"sharesCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToResponse encodes the post's ids with codec
func (p *Post) ToResponse(codec globalid.Codec) PostResponse {
	return PostResponse{
		ObjectId:      codec.Encode(globalid.TypePost, p.ObjectId),
		OwnerUserId:   codec.Encode(globalid.TypeUser, p.OwnerUserId),
		Content:       p.Content,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		SharesCount:   p.SharesCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// GetPostQuery holds the query string of GET /posts/:postId
type GetPostQuery struct {
	// Fresh bypasses the snapshot cache
	Fresh bool `schema:"fresh"`
}
