package models

import "time"

// RawPost is one post as collected from the page feed, before normalization.
// Every nested object is optional; the collector passes through whatever the
// upstream API returned.
type RawPost struct {
	ID           string  `json:"id"`
	CreatedTime  string  `json:"created_time"`
	Message      *string `json:"message,omitempty"`
	PermalinkURL string  `json:"permalink_url,omitempty"`
	FullPicture  string  `json:"full_picture,omitempty"`

	Reactions       *SummaryEdge            `json:"reactions,omitempty"`
	ReactionsByType map[string]*SummaryEdge `json:"reactions_by_type,omitempty"`
	Comments        *SummaryEdge            `json:"comments,omitempty"`
	Shares          *ShareCount             `json:"shares,omitempty"`
	Attachments     *AttachmentList         `json:"attachments,omitempty"`
	Insights        *InsightList            `json:"insights,omitempty"`
}

// SummaryEdge is the {"summary":{"total_count":N}} envelope used for reactions and comments.
type SummaryEdge struct {
	Summary *struct {
		TotalCount int `json:"total_count"`
	} `json:"summary,omitempty"`
}

// Count returns the total count, or 0 when the edge or its summary is
// missing or the count is negative.
func (e *SummaryEdge) Count() int {
	if e == nil || e.Summary == nil || e.Summary.TotalCount < 0 {
		return 0
	}
	return e.Summary.TotalCount
}

// ShareCount is the {"count":N} envelope used for shares.
type ShareCount struct {
	Count int `json:"count"`
}

// AttachmentList wraps the attachment data array.
type AttachmentList struct {
	Data []Attachment `json:"data"`
}

// Attachment describes media or a link attached to a post.
type Attachment struct {
	MediaType      string            `json:"media_type,omitempty"`
	Type           string            `json:"type,omitempty"`
	URL            string            `json:"url,omitempty"`
	UnshimmedURL   string            `json:"unshimmed_url,omitempty"`
	Target         *AttachmentTarget `json:"target,omitempty"`
	Media          *AttachmentMedia  `json:"media,omitempty"`
	Subattachments *AttachmentList   `json:"subattachments,omitempty"`
}

// LinkURL returns the unshimmed URL when present, else the plain URL.
func (a *Attachment) LinkURL() string {
	if a.UnshimmedURL != "" {
		return a.UnshimmedURL
	}
	return a.URL
}

// AttachmentTarget references the object an attachment points at.
type AttachmentTarget struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

// AttachmentMedia holds the attachment's preview image.
type AttachmentMedia struct {
	Image *AttachmentImage `json:"image,omitempty"`
}

// AttachmentImage is a media image with optional dimensions.
type AttachmentImage struct {
	Src    string `json:"src"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// InsightList wraps post insight metrics.
type InsightList struct {
	Data []Insight `json:"data"`
}

// Insight is a named lifetime metric; only the first value is used.
type Insight struct {
	Name   string         `json:"name"`
	Values []InsightValue `json:"values"`
}

// InsightValue holds a metric value. Non-numeric values are ignored.
type InsightValue struct {
	Value any `json:"value"`
}

// PageInfo is page-level metadata collected alongside the posts.
type PageInfo struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Username       string   `json:"username,omitempty"`
	Category       string   `json:"category,omitempty"`
	About          string   `json:"about,omitempty"`
	Website        string   `json:"website,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Emails         []string `json:"emails,omitempty"`
	FanCount       int      `json:"fan_count"`
	FollowersCount int      `json:"followers_count"`
	PictureURL     string   `json:"picture_url,omitempty"`
	CoverURL       string   `json:"cover_url,omitempty"`
}

// Audience returns the fan count, or the follower count for pages that do
// not report fans.
func (p PageInfo) Audience() int {
	if p.FanCount > 0 {
		return p.FanCount
	}
	if p.FollowersCount > 0 {
		return p.FollowersCount
	}
	return 0
}

// CollectionInfo describes how and when the dataset was collected.
type CollectionInfo struct {
	CollectedAt time.Time `json:"collected_at"`
	// InsightsAvailable is false when the collector had no permission to
	// read post insights.
	InsightsAvailable bool `json:"insights_available"`
}

// RawPageDataset is the collector's output for one page.
type RawPageDataset struct {
	Page       PageInfo       `json:"page"`
	Posts      []RawPost      `json:"posts"`
	Collection CollectionInfo `json:"collection"`
}
