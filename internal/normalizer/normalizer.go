// Package normalizer converts collected raw posts into flat, typed feature records.
//
// Normalization never fails: missing engagement objects count as zero, an
// empty message is treated exactly like a missing one, and unparseable
// creation times produce an invalid models.Timestamp that callers must check.
package normalizer

import (
	"math"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

// createdTimeLayouts are tried in order; the Graph API uses a +0000 offset without a colon.
var createdTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// mediaTypeMap maps attachment media_type/type values to post types.
var mediaTypeMap = map[string]models.PostType{
	"photo":                models.PostTypePhoto,
	"album":                models.PostTypePhoto,
	"cover_photo":          models.PostTypePhoto,
	"profile_media":        models.PostTypePhoto,
	"video":                models.PostTypeVideo,
	"video_inline":         models.PostTypeVideo,
	"video_autoplay":       models.PostTypeVideo,
	"animated_image_video": models.PostTypeVideo,
	"link":                 models.PostTypeLink,
	"share":                models.PostTypeShared,
	"shared":               models.PostTypeShared,
	"reel":                 models.PostTypeReel,
	"reels":                models.PostTypeReel,
}

var imageFormats = map[string]models.ImageFormat{
	".jpg":  models.ImageFormatJPEG,
	".jpeg": models.ImageFormatJPEG,
	".png":  models.ImageFormatPNG,
	".gif":  models.ImageFormatGIF,
	".webp": models.ImageFormatWebP,
	".heic": models.ImageFormatHEIC,
}

// Insight metric names read from the post insights list.
const (
	insightImpressions        = "post_impressions"
	insightOrganicImpressions = "post_impressions_organic"
	insightPaidImpressions    = "post_impressions_paid"
	insightReach              = "post_impressions_unique"
	insightClicks             = "post_clicks"
)

// Options tune normalization.
type Options struct {
	// FallbackImageURL is used when neither the attachment, its
	// sub-attachments nor the post's full picture carry an image.
	FallbackImageURL string
}

// Normalize converts one raw post into a NormalizedPost. It is a pure function.
func Normalize(raw models.RawPost, opts Options) models.NormalizedPost {
	post := models.NormalizedPost{
		ID:           raw.ID,
		CreatedAt:    ParseCreatedTime(raw.CreatedTime),
		PermalinkURL: raw.PermalinkURL,
	}

	// An empty message is deliberately indistinguishable from a missing one.
	if raw.Message != nil && *raw.Message != "" {
		msg := *raw.Message
		post.Message = &msg
		post.MessageLength = len([]rune(msg))
	}

	post.ReactionsCount = raw.Reactions.Count()
	post.CommentsCount = raw.Comments.Count()
	if raw.Shares != nil && raw.Shares.Count > 0 {
		post.SharesCount = raw.Shares.Count
	}
	post.TotalEngagement = post.ReactionsCount + post.CommentsCount + post.SharesCount
	if len(raw.ReactionsByType) > 0 {
		post.Reactions = make(models.ReactionBreakdown, len(raw.ReactionsByType))
		for kind, edge := range raw.ReactionsByType {
			post.Reactions[strings.ToLower(kind)] = edge.Count()
		}
	}

	att := firstAttachment(raw)
	post.Type = DerivePostType(att)
	if att != nil {
		post.IsShared = att.Target != nil && (att.Target.ID != "" || att.Target.URL != "")
		post.LinkURL = att.LinkURL()
	}

	tf := extractTextFeatures(post.Text(), post.LinkURL)
	post.EmojiCount = tf.emojiCount
	post.HasDoubleLineBreak = tf.hasDoubleLineBreak
	post.HasEmojiBullets = tf.hasEmojiBullets
	post.HasInlineLink = tf.hasInlineLink
	post.HasUTMParams = tf.hasUTMParams
	post.IsYouTubeLink = tf.isYouTubeLink

	applyMedia(&post, raw, att, opts)
	applyInsights(&post, raw.Insights)

	return post
}

// NormalizeAll normalizes every post and orders them newest first. Posts with
// invalid timestamps keep their relative order at the end.
func NormalizeAll(raws []models.RawPost, opts Options) []models.NormalizedPost {
	posts := make([]models.NormalizedPost, 0, len(raws))
	for _, raw := range raws {
		posts = append(posts, Normalize(raw, opts))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].CreatedAt, posts[j].CreatedAt
		if a.Valid != b.Valid {
			return a.Valid
		}
		if !a.Valid {
			return false
		}
		return a.Time.After(b.Time)
	})
	return posts
}

// NormalizeDataset normalizes a collected page dataset. The page picture is
// the image fallback for posts without any image of their own.
func NormalizeDataset(raw *models.RawPageDataset) *models.PageDataset {
	return &models.PageDataset{
		Page:       raw.Page,
		Posts:      NormalizeAll(raw.Posts, Options{FallbackImageURL: raw.Page.PictureURL}),
		Collection: raw.Collection,
	}
}

// ParseCreatedTime parses a post creation time. Unparseable input yields an
// invalid Timestamp instead of an error.
func ParseCreatedTime(s string) models.Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Timestamp{}
	}
	for _, layout := range createdTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.ValidTime(t.UTC())
		}
	}
	return models.Timestamp{}
}

// DerivePostType maps an attachment to a post type: no attachment is a status
// update, media_type wins over type, and anything unrecognized is "other".
func DerivePostType(att *models.Attachment) models.PostType {
	if att == nil {
		return models.PostTypeStatus
	}
	if t, ok := mediaTypeMap[strings.ToLower(att.MediaType)]; ok {
		return t
	}
	if t, ok := mediaTypeMap[strings.ToLower(att.Type)]; ok {
		return t
	}
	return models.PostTypeOther
}

// DetectImageFormat infers the image format from the URL's file extension,
// ignoring the query string and fragment.
func DetectImageFormat(rawURL string) models.ImageFormat {
	if rawURL == "" {
		return models.ImageFormatNone
	}
	u := rawURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if f, ok := imageFormats[strings.ToLower(path.Ext(u))]; ok {
		return f
	}
	return models.ImageFormatUnrecognized
}

func firstAttachment(raw models.RawPost) *models.Attachment {
	if raw.Attachments == nil || len(raw.Attachments.Data) == 0 {
		return nil
	}
	return &raw.Attachments.Data[0]
}

// applyMedia resolves the post image: attachment image, then sub-attachments,
// then the post's full picture, then the page-level fallback. Dimensions are
// only known for attachment images.
func applyMedia(post *models.NormalizedPost, raw models.RawPost, att *models.Attachment, opts Options) {
	var img *models.AttachmentImage
	if att != nil {
		if att.Media != nil && att.Media.Image != nil && att.Media.Image.Src != "" {
			img = att.Media.Image
		} else if att.Subattachments != nil {
			for i := range att.Subattachments.Data {
				sub := &att.Subattachments.Data[i]
				if sub.Media != nil && sub.Media.Image != nil && sub.Media.Image.Src != "" {
					img = sub.Media.Image
					break
				}
			}
		}
	}

	switch {
	case img != nil:
		post.ImageURL = img.Src
		if img.Width > 0 && img.Height > 0 {
			w, h := img.Width, img.Height
			post.ImageWidth = &w
			post.ImageHeight = &h
		}
	case raw.FullPicture != "":
		post.ImageURL = raw.FullPicture
	case att != nil && opts.FallbackImageURL != "":
		post.ImageURL = opts.FallbackImageURL
	}
	post.ImageFormat = DetectImageFormat(post.ImageURL)

	switch post.Type {
	case models.PostTypeVideo, models.PostTypeReel:
		post.HasMedia = true
		post.MediaType = "video"
	case models.PostTypePhoto:
		post.HasMedia = true
		post.MediaType = "photo"
	default:
		if post.ImageURL != "" {
			post.HasMedia = true
			post.MediaType = "photo"
		}
	}
}

func applyInsights(post *models.NormalizedPost, insights *models.InsightList) {
	if insights == nil {
		return
	}
	for _, in := range insights.Data {
		if len(in.Values) == 0 {
			continue
		}
		v, ok := insightInt(in.Values[0].Value)
		if !ok {
			continue
		}
		switch in.Name {
		case insightImpressions:
			post.Impressions = &v
		case insightOrganicImpressions:
			post.OrganicImpressions = &v
		case insightPaidImpressions:
			post.PaidImpressions = &v
		case insightReach:
			post.Reach = &v
		case insightClicks:
			post.Clicks = &v
		}
	}
}

func insightInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
			return 0, false
		}
		return int(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
