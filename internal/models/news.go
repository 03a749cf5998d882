package models

import "time"

type Source struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"index;not null" json:"name"`
	LogoURL string `gorm:"column:logo_url" json:"logo_url,omitempty"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Article struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        string    `gorm:"uniqueIndex;not null" json:"uuid"`
	Title       string    `gorm:"size:500;not null" json:"title"`
	URL         string    `gorm:"not null" json:"url"`
	Description string    `gorm:"size:1000" json:"description,omitempty"`
	URLToImage  string    `gorm:"column:url_to_image" json:"url_to_image,omitempty"`
	PublishedAt time.Time `gorm:"index;not null" json:"published_at"`
	Sentiment   string    `gorm:"not null" json:"sentiment"`

	SourceID   uint     `gorm:"not null" json:"-"`
	Source     Source   `gorm:"foreignKey:SourceID" json:"source"`
	CategoryID uint     `gorm:"not null" json:"-"`
	Category   Category `gorm:"foreignKey:CategoryID" json:"category"`
}

// Trending marks an article as currently trending. A row exists if and only
// if the article was flagged trending by the ingestion pipeline; removal is
// an administrative operation.
type Trending struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ArticleUUID string `gorm:"column:article_uuid;index;not null" json:"article_uuid"`
}

func (Trending) TableName() string { return "trending" }
