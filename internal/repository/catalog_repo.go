package repository

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogRepository covers the reference data requests are raised against:
// divisions, buyers, buyer sites, and articles.
type CatalogRepository interface {
	CreateDivision(ctx context.Context, division *model.Division) error
	ListDivisions(ctx context.Context) ([]model.Division, error)

	CreateBuyer(ctx context.Context, buyer *model.Buyer) error
	ListBuyers(ctx context.Context) ([]model.Buyer, error)
	BuyerExists(ctx context.Context, id uuid.UUID) (bool, error)

	CreateSite(ctx context.Context, site *model.BuyerSite) error
	ListSites(ctx context.Context, buyerID *uuid.UUID) ([]model.BuyerSite, error)
	FindSite(ctx context.Context, id uuid.UUID) (*model.BuyerSite, error)

	CreateArticle(ctx context.Context, article *model.Article) error
	ListArticles(ctx context.Context) ([]model.Article, error)
	// PricesForArticles returns catalog sell prices keyed by article id,
	// skipping unpriced articles.
	PricesForArticles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateDivision(ctx context.Context, division *model.Division) error {
	if err := GetDB(ctx, r.db).Create(division).Error; err != nil {
		return fmt.Errorf("%w: create division: %v", apperror.ErrDependency, err)
	}
	return nil
}

func (r *catalogRepository) ListDivisions(ctx context.Context) ([]model.Division, error) {
	var divisions []model.Division
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&divisions).Error; err != nil {
		return nil, fmt.Errorf("%w: list divisions: %v", apperror.ErrDependency, err)
	}
	return divisions, nil
}

func (r *catalogRepository) CreateBuyer(ctx context.Context, buyer *model.Buyer) error {
	if err := GetDB(ctx, r.db).Create(buyer).Error; err != nil {
		return fmt.Errorf("%w: create buyer: %v", apperror.ErrDependency, err)
	}
	return nil
}

func (r *catalogRepository) ListBuyers(ctx context.Context) ([]model.Buyer, error) {
	var buyers []model.Buyer
	if err := GetDB(ctx, r.db).Order("code ASC").Find(&buyers).Error; err != nil {
		return nil, fmt.Errorf("%w: list buyers: %v", apperror.ErrDependency, err)
	}
	return buyers, nil
}

func (r *catalogRepository) BuyerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Buyer{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: check buyer: %v", apperror.ErrDependency, err)
	}
	return count > 0, nil
}

func (r *catalogRepository) CreateSite(ctx context.Context, site *model.BuyerSite) error {
	if err := GetDB(ctx, r.db).Create(site).Error; err != nil {
		return fmt.Errorf("%w: create buyer site: %v", apperror.ErrDependency, err)
	}
	return nil
}

func (r *catalogRepository) ListSites(ctx context.Context, buyerID *uuid.UUID) ([]model.BuyerSite, error) {
	var sites []model.BuyerSite
	query := GetDB(ctx, r.db).Order("site_code ASC")
	if buyerID != nil {
		query = query.Where("buyer_id = ?", *buyerID)
	}
	if err := query.Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("%w: list buyer sites: %v", apperror.ErrDependency, err)
	}
	return sites, nil
}

func (r *catalogRepository) FindSite(ctx context.Context, id uuid.UUID) (*model.BuyerSite, error) {
	var site model.BuyerSite
	if err := GetDB(ctx, r.db).First(&site, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: buyer site %s", apperror.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: find buyer site: %v", apperror.ErrDependency, err)
	}
	return &site, nil
}

func (r *catalogRepository) CreateArticle(ctx context.Context, article *model.Article) error {
	if err := GetDB(ctx, r.db).Create(article).Error; err != nil {
		return fmt.Errorf("%w: create article: %v", apperror.ErrDependency, err)
	}
	return nil
}

func (r *catalogRepository) ListArticles(ctx context.Context) ([]model.Article, error) {
	var articles []model.Article
	if err := GetDB(ctx, r.db).Order("sku ASC").Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("%w: list articles: %v", apperror.ErrDependency, err)
	}
	return articles, nil
}

func (r *catalogRepository) PricesForArticles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	prices := make(map[uuid.UUID]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	var articles []model.Article
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("%w: load article prices: %v", apperror.ErrDependency, err)
	}
	for _, a := range articles {
		if a.SellPrice != nil {
			prices[a.ID] = *a.SellPrice
		}
	}
	return prices, nil
}
