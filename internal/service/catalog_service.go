package service

import (
	"context"
	"fmt"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateDivisionRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateBuyerRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type CreateSiteRequest struct {
	BuyerID  string `json:"buyer_id" binding:"required"`
	SiteCode string `json:"site_code" binding:"required"`
	SiteName string `json:"site_name" binding:"required"`
}

type CreateArticleRequest struct {
	SKU       string  `json:"sku" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	SellPrice *string `json:"sell_price"` // Optional; article may be unpriced
}

// MetaResponse feeds the agent's request form in one round trip.
type MetaResponse struct {
	Buyers   []model.Buyer     `json:"buyers"`
	Sites    []model.BuyerSite `json:"sites"`
	Articles []model.Article   `json:"articles"`
	Me       *UserResponse     `json:"me"`
}

// --- Interface ---

type CatalogService interface {
	CreateDivision(ctx context.Context, req CreateDivisionRequest) (*model.Division, error)
	ListDivisions(ctx context.Context) ([]model.Division, error)
	CreateBuyer(ctx context.Context, req CreateBuyerRequest) (*model.Buyer, error)
	ListBuyers(ctx context.Context) ([]model.Buyer, error)
	CreateSite(ctx context.Context, req CreateSiteRequest) (*model.BuyerSite, error)
	ListSites(ctx context.Context, buyerID *uuid.UUID) ([]model.BuyerSite, error)
	CreateArticle(ctx context.Context, req CreateArticleRequest) (*model.Article, error)
	ListArticles(ctx context.Context) ([]model.Article, error)
	Meta(ctx context.Context, userID uuid.UUID) (*MetaResponse, error)
}

type catalogService struct {
	catalog repository.CatalogRepository
	users   repository.UserRepository
}

func NewCatalogService(catalog repository.CatalogRepository, users repository.UserRepository) CatalogService {
	return &catalogService{catalog: catalog, users: users}
}

// --- Implementation ---

func (s *catalogService) CreateDivision(ctx context.Context, req CreateDivisionRequest) (*model.Division, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: division name is required", apperror.ErrValidation)
	}
	division := &model.Division{Name: name}
	if err := s.catalog.CreateDivision(ctx, division); err != nil {
		return nil, err
	}
	return division, nil
}

func (s *catalogService) ListDivisions(ctx context.Context) ([]model.Division, error) {
	return s.catalog.ListDivisions(ctx)
}

func (s *catalogService) CreateBuyer(ctx context.Context, req CreateBuyerRequest) (*model.Buyer, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: buyer code and name are required", apperror.ErrValidation)
	}
	buyer := &model.Buyer{Code: code, Name: name}
	if err := s.catalog.CreateBuyer(ctx, buyer); err != nil {
		return nil, err
	}
	return buyer, nil
}

func (s *catalogService) ListBuyers(ctx context.Context) ([]model.Buyer, error) {
	return s.catalog.ListBuyers(ctx)
}

func (s *catalogService) CreateSite(ctx context.Context, req CreateSiteRequest) (*model.BuyerSite, error) {
	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid buyer_id", apperror.ErrValidation)
	}
	exists, err := s.catalog.BuyerExists(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: buyer %s", apperror.ErrNotFound, buyerID)
	}

	code := strings.TrimSpace(req.SiteCode)
	name := strings.TrimSpace(req.SiteName)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: site code and name are required", apperror.ErrValidation)
	}
	site := &model.BuyerSite{BuyerID: buyerID, SiteCode: code, SiteName: name}
	if err := s.catalog.CreateSite(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

func (s *catalogService) ListSites(ctx context.Context, buyerID *uuid.UUID) ([]model.BuyerSite, error) {
	return s.catalog.ListSites(ctx, buyerID)
}

func (s *catalogService) CreateArticle(ctx context.Context, req CreateArticleRequest) (*model.Article, error) {
	sku := strings.TrimSpace(req.SKU)
	name := strings.TrimSpace(req.Name)
	if sku == "" || name == "" {
		return nil, fmt.Errorf("%w: SKU and name are required", apperror.ErrValidation)
	}

	article := &model.Article{SKU: sku, Name: name}
	if req.SellPrice != nil && *req.SellPrice != "" {
		price, parseErr := decimal.NewFromString(*req.SellPrice)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: invalid sell_price", apperror.ErrValidation)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("%w: sell_price must not be negative", apperror.ErrValidation)
		}
		article.SellPrice = &price
	}

	if err := s.catalog.CreateArticle(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

func (s *catalogService) ListArticles(ctx context.Context) ([]model.Article, error) {
	return s.catalog.ListArticles(ctx)
}

func (s *catalogService) Meta(ctx context.Context, userID uuid.UUID) (*MetaResponse, error) {
	buyers, err := s.catalog.ListBuyers(ctx)
	if err != nil {
		return nil, err
	}
	sites, err := s.catalog.ListSites(ctx, nil)
	if err != nil {
		return nil, err
	}
	articles, err := s.catalog.ListArticles(ctx)
	if err != nil {
		return nil, err
	}
	me, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MetaResponse{
		Buyers:   buyers,
		Sites:    sites,
		Articles: articles,
		Me:       mapUserToResponse(me),
	}, nil
}
