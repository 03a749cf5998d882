package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/spacesedan/newspulse/internal/models"
)

// GetCategoryArticles pages through articles newest-first, keyed by the
// storage id, optionally filtered to one category.
func (s *Store) GetCategoryArticles(ctx context.Context, lastItemID uint, category string, pageSize int) ([]models.Article, error) {
	query := s.db.WithContext(ctx).
		Preload("Source").
		Preload("Category").
		Order("articles.id DESC")

	if category != "" && category != "all" {
		query = query.
			Joins("JOIN categories ON categories.id = articles.category_id").
			Where("categories.name = ?", category)
	}
	if lastItemID > 0 {
		query = query.Where("articles.id < ?", lastItemID)
	}

	var articles []models.Article
	if err := query.Limit(pageSize).Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (s *Store) GetTrendingArticles(ctx context.Context, page, pageSize int) ([]models.Article, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var articles []models.Article
	err := s.db.WithContext(ctx).
		Preload("Source").
		Preload("Category").
		Joins("JOIN trending ON trending.article_uuid = articles.uuid").
		Order("articles.id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func (s *Store) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// RemoveTrending drops the trending marker for one article. This is the only
// supported removal path, used by the administrative surface.
func (s *Store) RemoveTrending(ctx context.Context, articleUUID string) error {
	return s.db.WithContext(ctx).
		Where("article_uuid = ?", articleUUID).
		Delete(&models.Trending{}).Error
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
