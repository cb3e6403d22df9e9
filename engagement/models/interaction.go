// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	engagementErrors "github.com/qolzam/telar/apps/social/engagement/errors"
	"github.com/qolzam/telar/apps/social/internal/globalid"
)

// Kind is the closed set of interactions a user can record on a post
type Kind string

const (
	KindLike  Kind = "like"
	KindShare Kind = "share"
)

// Kinds lists every valid Kind
var Kinds = []Kind{KindLike, KindShare}

// ParseKind accepts exactly "like" or "share"
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLike:
		return KindLike, nil
	case KindShare:
		return KindShare, nil
	default:
		return "", fmt.Errorf("%w: %q", engagementErrors.ErrInvalidInteractionKind, s)
	}
}

func (k Kind) String() string {
	return string(k)
}

// Interaction is a single (post, user, kind) record; the triple is unique
type Interaction struct {
	ObjectId    uuid.UUID `db:"id" json:"objectId"`
	PostId      uuid.UUID `db:"post_id" json:"postId"`
	OwnerUserId uuid.UUID `db:"owner_user_id" json:"ownerUserId"`
	Kind        Kind      `db:"kind" json:"kind"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// InteractionCounts is the authoritative aggregate the like and share counters are rebuilt from
type InteractionCounts struct {
	Likes  int64 `db:"likes"`
	Shares int64 `db:"shares"`
}

// InteractionResponse is the client view of an interaction
type InteractionResponse struct {
	ObjectId    string    `json:"objectId"`
	PostId      string    `json:"postId"`
	OwnerUserId string    `json:"ownerUserId"`
	Kind        Kind      `json:"kind"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToResponse encodes the interaction's references with codec
func (i *Interaction) ToResponse(codec globalid.Codec) InteractionResponse {
	return InteractionResponse{
		ObjectId:    i.ObjectId.String(),
		PostId:      codec.Encode(globalid.TypePost, i.PostId),
		OwnerUserId: codec.Encode(globalid.TypeUser, i.OwnerUserId),
		Kind:        i.Kind,
		CreatedAt:   i.CreatedAt,
	}
}

// RecordInteractionRequest is the body of POST /posts/:postId/interactions
type RecordInteractionRequest struct {
	Kind string `json:"kind"`
}
