package questions

// Question is a title/url/site triple describing an out-of-context question
// sourced from the web. All three fields are non-empty once a Question has
// passed through Parse or Sanitize; construction elsewhere is not validated.
type Question struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Site  string `json:"site"`
}

// Valid reports whether all required fields survived sanitation.
func (q Question) Valid() bool {
	return q.Title != "" && q.URL != "" && q.Site != ""
}

// Key is the composite identity used for batch deduplication. Two distinct
// random draws may legitimately collide on it; dedup is a dataset-quality
// mitigation, not a uniqueness guarantee.
func (q Question) Key() string {
	return q.Title + "|" + q.URL
}
