package models

// ContentLabel is the classifier's verdict on a post's text.
type ContentLabel string

const (
	LabelSales      ContentLabel = "SALES"
	LabelBrand      ContentLabel = "BRAND"
	LabelEngagement ContentLabel = "ENGAGEMENT"
)

// ContentClassification labels one post. Keyword lists and reasoning are
// only filled for the debug sample of a batch.
type ContentClassification struct {
	PostID        string       `json:"post_id"`
	Label         ContentLabel `json:"label"`
	SalesKeywords []string     `json:"sales_keywords,omitempty"`
	BrandKeywords []string     `json:"brand_keywords,omitempty"`
	Reasoning     string       `json:"reasoning,omitempty"`
}
