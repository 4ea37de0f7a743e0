package handler

import (
	"net/http"

	"backend/internal/approval"
	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/apperror"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Meta is readable by any authenticated user; it feeds the agent form
	router.GET("/meta", middleware.RequireRole(
		approval.RoleAgent, approval.RoleTeamLead, approval.RoleDivisionManager,
		approval.RoleSalesDirector, approval.RoleAdmin,
	), h.Meta)

	admin := router.Group("/admin", middleware.RequireRole(approval.RoleAdmin))
	{
		admin.GET("/divisions", h.ListDivisions)
		admin.POST("/divisions", h.CreateDivision)
		admin.GET("/buyers", h.ListBuyers)
		admin.POST("/buyers", h.CreateBuyer)
		admin.GET("/buyer-sites", h.ListSites)
		admin.POST("/buyer-sites", h.CreateSite)
		admin.GET("/articles", h.ListArticles)
		admin.POST("/articles", h.CreateArticle)
	}
}

// Meta returns buyers, sites, articles, and the caller's profile
// @Summary      Request form metadata
// @Tags         meta
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.MetaResponse}
// @Router       /meta [get]
func (h *CatalogHandler) Meta(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return
	}

	meta, err := h.catalogService.Meta(c.Request.Context(), userID)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, meta))
}

// ListDivisions handles GET /admin/divisions
// @Summary      List divisions
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Division}
// @Router       /admin/divisions [get]
func (h *CatalogHandler) ListDivisions(c *gin.Context) {
	divisions, err := h.catalogService.ListDivisions(c.Request.Context())
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, divisions))
}

// CreateDivision handles POST /admin/divisions
// @Summary      Create division
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDivisionRequest  true  "Division"
// @Success      201      {object}  response.Response{data=model.Division}
// @Failure      400      {object}  response.Response
// @Router       /admin/divisions [post]
func (h *CatalogHandler) CreateDivision(c *gin.Context) {
	var req service.CreateDivisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	division, err := h.catalogService.CreateDivision(c.Request.Context(), req)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, division))
}

// ListBuyers handles GET /admin/buyers
func (h *CatalogHandler) ListBuyers(c *gin.Context) {
	buyers, err := h.catalogService.ListBuyers(c.Request.Context())
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, buyers))
}

// CreateBuyer handles POST /admin/buyers
// @Summary      Create buyer
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateBuyerRequest  true  "Buyer"
// @Success      201      {object}  response.Response{data=model.Buyer}
// @Failure      400      {object}  response.Response
// @Router       /admin/buyers [post]
func (h *CatalogHandler) CreateBuyer(c *gin.Context) {
	var req service.CreateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	buyer, err := h.catalogService.CreateBuyer(c.Request.Context(), req)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, buyer))
}

// ListSites handles GET /admin/buyer-sites, optionally filtered by buyer_id
func (h *CatalogHandler) ListSites(c *gin.Context) {
	var buyerID *uuid.UUID
	if raw := c.Query("buyer_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid buyer_id"))
			return
		}
		buyerID = &parsed
	}

	sites, err := h.catalogService.ListSites(c.Request.Context(), buyerID)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sites))
}

// CreateSite handles POST /admin/buyer-sites
func (h *CatalogHandler) CreateSite(c *gin.Context) {
	var req service.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	site, err := h.catalogService.CreateSite(c.Request.Context(), req)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, site))
}

// ListArticles handles GET /admin/articles
func (h *CatalogHandler) ListArticles(c *gin.Context) {
	articles, err := h.catalogService.ListArticles(c.Request.Context())
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, articles))
}

// CreateArticle handles POST /admin/articles
// @Summary      Create article
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateArticleRequest  true  "Article"
// @Success      201      {object}  response.Response{data=model.Article}
// @Failure      400      {object}  response.Response
// @Router       /admin/articles [post]
func (h *CatalogHandler) CreateArticle(c *gin.Context) {
	var req service.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	article, err := h.catalogService.CreateArticle(c.Request.Context(), req)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, article))
}
