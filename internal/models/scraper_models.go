package models

import "time"

type RawItemSource struct {
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}

// RawItem is one scraped article as returned by the scraper service.
type RawItem struct {
	UUID        string        `json:"uuid"`
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Description string        `json:"description"`
	URLToImage  string        `json:"urlToImage"`
	PublishedAt time.Time     `json:"publishedAt"`
	Source      RawItemSource `json:"source"`
	IsTrending  bool          `json:"isTrending"`
}
