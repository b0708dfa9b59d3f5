package api

import "time"

// PostSummary is a post as shown in listings
type PostSummary struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	CoverImageURL string     `json:"coverImageUrl"`
	SummaryHTML   string     `json:"summaryHtml"`
	Snippet       string     `json:"snippet"`
	Categories    []Category `json:"categories"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PostDetail is a single post with its markdown source and sanitized HTML
type PostDetail struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	HTML          string     `json:"html"`
	CoverImageURL string     `json:"coverImageUrl"`
	Categories    []Category `json:"categories"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PostRequest is the body of post create and update calls.
// CategoryIDs is the full desired set; omitting it clears every category.
type PostRequest struct {
	Title         string   `json:"title" binding:"required"`
	Content       string   `json:"content" binding:"required"`
	CoverImageURL string   `json:"coverImageUrl"`
	CategoryIDs   []string `json:"categoryIds"`
}
