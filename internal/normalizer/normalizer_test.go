package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

func strPtr(s string) *string { return &s }

func summary(n int) *models.SummaryEdge {
	e := &models.SummaryEdge{}
	e.Summary = &struct {
		TotalCount int `json:"total_count"`
	}{TotalCount: n}
	return e
}

func TestNormalize_EmptyAndMissingMessageAreEquivalent(t *testing.T) {
	empty := Normalize(models.RawPost{ID: "1", Message: strPtr("")}, Options{})
	missing := Normalize(models.RawPost{ID: "2"}, Options{})

	assert.Nil(t, empty.Message)
	assert.Nil(t, missing.Message)
	assert.Equal(t, 0, empty.MessageLength)
	assert.Equal(t, 0, missing.MessageLength)
}

func TestNormalize_EngagementDefaultsAndInvariant(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawPost
		want int
	}{
		{name: "all missing", raw: models.RawPost{ID: "a"}, want: 0},
		{name: "summary without counts", raw: models.RawPost{ID: "b", Reactions: &models.SummaryEdge{}}, want: 0},
		{
			name: "all present",
			raw: models.RawPost{
				ID:        "c",
				Reactions: summary(10),
				Comments:  summary(4),
				Shares:    &models.ShareCount{Count: 2},
			},
			want: 16,
		},
		{
			name: "negative counts clamp to zero",
			raw: models.RawPost{
				ID:        "d",
				Reactions: summary(-1),
				Comments:  summary(3),
				Shares:    &models.ShareCount{Count: -5},
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := Normalize(tt.raw, Options{})
			assert.Equal(t, tt.want, post.TotalEngagement)
			assert.Equal(t, post.ReactionsCount+post.CommentsCount+post.SharesCount, post.TotalEngagement)
			require.NoError(t, post.Validate())
		})
	}
}

func TestNormalize_ReactionBreakdown(t *testing.T) {
	post := Normalize(models.RawPost{
		ID:              "1",
		ReactionsByType: map[string]*models.SummaryEdge{"LIKE": summary(7), "love": summary(3), "wow": nil},
	}, Options{})

	assert.Equal(t, models.ReactionBreakdown{"like": 7, "love": 3, "wow": 0}, post.Reactions)
}

func TestDerivePostType(t *testing.T) {
	tests := []struct {
		name string
		att  *models.Attachment
		want models.PostType
	}{
		{"no attachment", nil, models.PostTypeStatus},
		{"photo", &models.Attachment{MediaType: "photo"}, models.PostTypePhoto},
		{"album maps to photo", &models.Attachment{Type: "album"}, models.PostTypePhoto},
		{"video inline", &models.Attachment{Type: "video_inline"}, models.PostTypeVideo},
		{"share maps to shared", &models.Attachment{Type: "share"}, models.PostTypeShared},
		{"reel", &models.Attachment{MediaType: "REEL"}, models.PostTypeReel},
		{"link", &models.Attachment{Type: "link"}, models.PostTypeLink},
		{"media type wins", &models.Attachment{MediaType: "video", Type: "share"}, models.PostTypeVideo},
		{"unrecognized", &models.Attachment{Type: "event"}, models.PostTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePostType(tt.att))
		})
	}
}

func TestNormalize_SharedTarget(t *testing.T) {
	raw := models.RawPost{
		ID: "1",
		Attachments: &models.AttachmentList{Data: []models.Attachment{
			{Type: "share", URL: "https://example.com/a", Target: &models.AttachmentTarget{ID: "99"}},
		}},
	}
	post := Normalize(raw, Options{})

	assert.True(t, post.IsShared)
	assert.Equal(t, models.PostTypeShared, post.Type)
	assert.Equal(t, "https://example.com/a", post.LinkURL)
}

func TestNormalize_TextFeatures(t *testing.T) {
	msg := "New menu 🍕\n\n✅ fresh dough\n✅ local cheese\nOrder: https://shop.example.com/?utm_source=fb"
	post := Normalize(models.RawPost{ID: "1", Message: strPtr(msg)}, Options{})

	assert.Equal(t, 3, post.EmojiCount)
	assert.True(t, post.HasDoubleLineBreak)
	assert.True(t, post.HasEmojiBullets)
	assert.True(t, post.HasInlineLink)
	assert.True(t, post.HasUTMParams)
	assert.False(t, post.IsYouTubeLink)
	assert.Equal(t, len([]rune(msg)), post.MessageLength)
}

func TestHasEmojiBullets_SingleLineDoesNotQualify(t *testing.T) {
	assert.False(t, hasEmojiBullets("🔥 only one\nplain line"))
	assert.True(t, hasEmojiBullets("🔥 one\n  🎉 two"))
	assert.False(t, hasEmojiBullets(""))
}

func TestNormalize_YouTubeFromAttachment(t *testing.T) {
	raw := models.RawPost{
		ID:      "1",
		Message: strPtr("watch this"),
		Attachments: &models.AttachmentList{Data: []models.Attachment{
			{Type: "video_share_youtube", URL: "https://youtu.be/abc"},
		}},
	}
	post := Normalize(raw, Options{})

	assert.True(t, post.IsYouTubeLink)
	assert.False(t, post.HasInlineLink)
	assert.Equal(t, models.PostTypeOther, post.Type)
}

func TestNormalize_MediaFallbackChain(t *testing.T) {
	t.Run("attachment image with dimensions", func(t *testing.T) {
		raw := models.RawPost{
			ID: "1",
			Attachments: &models.AttachmentList{Data: []models.Attachment{{
				MediaType: "photo",
				Media:     &models.AttachmentMedia{Image: &models.AttachmentImage{Src: "https://cdn.example.com/a.PNG?x=1", Width: 1080, Height: 1350}},
			}}},
		}
		post := Normalize(raw, Options{})
		require.True(t, post.HasImageDimensions())
		assert.Equal(t, 1080, *post.ImageWidth)
		assert.Equal(t, models.ImageFormatPNG, post.ImageFormat)
		assert.True(t, post.HasMedia)
		assert.Equal(t, "photo", post.MediaType)
	})

	t.Run("sub-attachment image", func(t *testing.T) {
		raw := models.RawPost{
			ID: "2",
			Attachments: &models.AttachmentList{Data: []models.Attachment{{
				Type: "album",
				Subattachments: &models.AttachmentList{Data: []models.Attachment{
					{Media: &models.AttachmentMedia{Image: &models.AttachmentImage{Src: "https://cdn.example.com/b.jpg", Width: 720, Height: 720}}},
				}},
			}}},
		}
		post := Normalize(raw, Options{})
		assert.Equal(t, "https://cdn.example.com/b.jpg", post.ImageURL)
		assert.Equal(t, models.ImageFormatJPEG, post.ImageFormat)
		assert.True(t, post.HasImageDimensions())
	})

	t.Run("page fallback has unknown dimensions", func(t *testing.T) {
		raw := models.RawPost{
			ID:          "3",
			Attachments: &models.AttachmentList{Data: []models.Attachment{{Type: "link", URL: "https://example.com"}}},
		}
		post := Normalize(raw, Options{FallbackImageURL: "https://cdn.example.com/page.bmp"})
		assert.Equal(t, "https://cdn.example.com/page.bmp", post.ImageURL)
		assert.False(t, post.HasImageDimensions())
		assert.Equal(t, models.ImageFormatUnrecognized, post.ImageFormat)
	})

	t.Run("status post has no media", func(t *testing.T) {
		post := Normalize(models.RawPost{ID: "4"}, Options{FallbackImageURL: "https://cdn.example.com/page.jpg"})
		assert.False(t, post.HasMedia)
		assert.Equal(t, models.ImageFormatNone, post.ImageFormat)
	})
}

func TestDetectImageFormat(t *testing.T) {
	tests := []struct {
		url  string
		want models.ImageFormat
	}{
		{"", models.ImageFormatNone},
		{"https://x/y.jpeg", models.ImageFormatJPEG},
		{"https://x/y.webp?stp=dst-jpg&_nc=1", models.ImageFormatWebP},
		{"https://x/y.gif#frag", models.ImageFormatGIF},
		{"https://x/y", models.ImageFormatUnrecognized},
		{"https://x/y.tiff", models.ImageFormatUnrecognized},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectImageFormat(tt.url), tt.url)
	}
}

func TestParseCreatedTime(t *testing.T) {
	ts := ParseCreatedTime("2026-02-03T10:00:00+0000")
	require.True(t, ts.Valid)
	assert.Equal(t, time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), ts.Time)

	assert.True(t, ParseCreatedTime("2026-02-03T10:00:00Z").Valid)
	assert.False(t, ParseCreatedTime("yesterday").Valid)
	assert.False(t, ParseCreatedTime("").Valid)
}

func TestNormalize_Insights(t *testing.T) {
	raw := models.RawPost{
		ID: "1",
		Insights: &models.InsightList{Data: []models.Insight{
			{Name: "post_impressions", Values: []models.InsightValue{{Value: float64(1200)}}},
			{Name: "post_impressions_organic", Values: []models.InsightValue{{Value: float64(900)}}},
			{Name: "post_clicks", Values: []models.InsightValue{{Value: "n/a"}}},
			{Name: "post_impressions_unique", Values: nil},
		}},
	}
	post := Normalize(raw, Options{})

	require.NotNil(t, post.Impressions)
	assert.Equal(t, 1200, *post.Impressions)
	require.NotNil(t, post.OrganicImpressions)
	assert.Equal(t, 900, *post.OrganicImpressions)
	assert.Nil(t, post.Clicks)
	assert.Nil(t, post.Reach)
	assert.Nil(t, post.PaidImpressions)
}

func TestNormalizeAll_OrdersNewestFirst(t *testing.T) {
	raws := []models.RawPost{
		{ID: "old", CreatedTime: "2026-01-01T00:00:00+0000"},
		{ID: "bad", CreatedTime: "not a date"},
		{ID: "new", CreatedTime: "2026-01-10T00:00:00+0000"},
		{ID: "mid", CreatedTime: "2026-01-05T00:00:00+0000"},
	}
	posts := NormalizeAll(raws, Options{})

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"new", "mid", "old", "bad"}, ids)
}

func TestNormalizeDataset(t *testing.T) {
	collected := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	raw := &models.RawPageDataset{
		Page:       models.PageInfo{ID: "p", FanCount: 1000},
		Posts:      []models.RawPost{{ID: "1", Reactions: summary(2)}},
		Collection: models.CollectionInfo{CollectedAt: collected},
	}
	ds := NormalizeDataset(raw)

	require.Len(t, ds.Posts, 1)
	assert.Equal(t, 1000, ds.Page.FanCount)
	assert.Equal(t, collected, ds.ReferenceTime())
}
