// Package models defines the core domain entities for orchideo.
// These cover collected page data, normalized post features, trigger
// evaluations, aggregate scores and the persisted result records.
//
// Terminology:
//   - Trigger: one diagnostic rule scoring a page 0-100.
//   - Category: a fixed grouping of triggers with its own weight in the overall score.
//   - Analysis: one identity under which a run's results are stored and replaced.
package models

import (
	"encoding/json"
	"errors"
	"time"
)

// PostType is the normalized kind of a post, derived from its attachments.
type PostType string

const (
	PostTypeStatus PostType = "status"
	PostTypePhoto  PostType = "photo"
	PostTypeVideo  PostType = "video"
	PostTypeLink   PostType = "link"
	PostTypeShared PostType = "shared"
	PostTypeReel   PostType = "reel"
	PostTypeOther  PostType = "other"
)

// ImageFormat is the image file format inferred from a URL extension.
type ImageFormat string

const (
	ImageFormatNone         ImageFormat = ""
	ImageFormatJPEG         ImageFormat = "jpeg"
	ImageFormatPNG          ImageFormat = "png"
	ImageFormatGIF          ImageFormat = "gif"
	ImageFormatWebP         ImageFormat = "webp"
	ImageFormatHEIC         ImageFormat = "heic"
	ImageFormatUnrecognized ImageFormat = "unrecognized"
)

// Timestamp is a creation time that may have failed to parse.
// Callers must check Valid before using Time for date-range logic.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// ValidTime wraps t as a valid Timestamp.
func ValidTime(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// MarshalJSON encodes an invalid timestamp as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

// UnmarshalJSON accepts null or an RFC 3339 time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var v time.Time
	if err := json.Unmarshal(data, &v); err != nil {
		*t = Timestamp{}
		return nil
	}
	*t = ValidTime(v)
	return nil
}

// Within reports whether the timestamp is valid and falls in (now-window, now].
func (t Timestamp) Within(now time.Time, window time.Duration) bool {
	if !t.Valid {
		return false
	}
	return !t.Time.After(now) && now.Sub(t.Time) < window
}

// ReactionBreakdown counts reactions per type (like, love, haha, wow, sad, angry, care).
type ReactionBreakdown map[string]int

// NormalizedPost is the flat feature record derived from one RawPost.
// It is created once by the normalizer and never mutated afterwards.
type NormalizedPost struct {
	ID           string    `json:"id"`
	CreatedAt    Timestamp `json:"created_at"`
	Message      *string   `json:"message"`
	PermalinkURL string    `json:"permalink_url,omitempty"`
	Type         PostType  `json:"type"`
	IsShared     bool      `json:"is_shared"`

	ReactionsCount  int               `json:"reactions_count"`
	CommentsCount   int               `json:"comments_count"`
	SharesCount     int               `json:"shares_count"`
	Reactions       ReactionBreakdown `json:"reactions,omitempty"`
	TotalEngagement int               `json:"total_engagement"`

	MessageLength      int  `json:"message_length"`
	EmojiCount         int  `json:"emoji_count"`
	HasDoubleLineBreak bool `json:"has_double_linebreak"`
	HasEmojiBullets    bool `json:"has_emoji_bullets"`
	HasInlineLink      bool `json:"has_inline_link"`
	HasUTMParams       bool `json:"has_utm_params"`
	IsYouTubeLink      bool `json:"is_youtube_link"`

	HasMedia    bool        `json:"has_media"`
	MediaType   string      `json:"media_type,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	ImageWidth  *int        `json:"image_width"`
	ImageHeight *int        `json:"image_height"`
	ImageFormat ImageFormat `json:"image_format,omitempty"`
	LinkURL     string      `json:"link_url,omitempty"`

	Impressions        *int `json:"impressions"`
	OrganicImpressions *int `json:"organic_impressions"`
	PaidImpressions    *int `json:"paid_impressions"`
	Reach              *int `json:"reach"`
	Clicks             *int `json:"clicks"`
}

// Validate checks the invariants the normalizer guarantees.
func (p *NormalizedPost) Validate() error {
	if p.ID == "" {
		return errors.New("post ID must not be empty")
	}
	if p.ReactionsCount < 0 || p.CommentsCount < 0 || p.SharesCount < 0 {
		return errors.New("engagement counts must not be negative")
	}
	if p.TotalEngagement != p.ReactionsCount+p.CommentsCount+p.SharesCount {
		return errors.New("total engagement must equal reactions + comments + shares")
	}
	if p.Message == nil && p.MessageLength != 0 {
		return errors.New("message length must be 0 when message is absent")
	}
	return nil
}

// Text returns the message or "" when absent.
func (p *NormalizedPost) Text() string {
	if p.Message == nil {
		return ""
	}
	return *p.Message
}

// HasImageDimensions reports whether both image dimensions are known.
func (p *NormalizedPost) HasImageDimensions() bool {
	return p.ImageWidth != nil && p.ImageHeight != nil
}

// PageDataset is a page's normalized data: metadata plus posts, newest first.
type PageDataset struct {
	Page       PageInfo         `json:"page"`
	Posts      []NormalizedPost `json:"posts"`
	Collection CollectionInfo   `json:"collection"`
}

// ReferenceTime is the instant date windows are measured from: the collection
// time when known, otherwise the newest valid post time, otherwise the zero time.
func (d *PageDataset) ReferenceTime() time.Time {
	if !d.Collection.CollectedAt.IsZero() {
		return d.Collection.CollectedAt
	}
	var newest time.Time
	for i := range d.Posts {
		if d.Posts[i].CreatedAt.Valid && d.Posts[i].CreatedAt.Time.After(newest) {
			newest = d.Posts[i].CreatedAt.Time
		}
	}
	return newest
}

// PostsWithin returns the posts with a valid timestamp inside the window ending at now.
func (d *PageDataset) PostsWithin(now time.Time, window time.Duration) []NormalizedPost {
	var out []NormalizedPost
	for _, p := range d.Posts {
		if p.CreatedAt.Within(now, window) {
			out = append(out, p)
		}
	}
	return out
}
