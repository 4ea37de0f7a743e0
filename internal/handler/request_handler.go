package handler

import (
	"fmt"
	"net/http"

	"backend/internal/approval"
	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/apperror"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.POST("", middleware.RequireRole(approval.RoleAgent, approval.RoleAdmin), h.Create)
		requests.GET("/my", middleware.RequireRole(approval.RoleAgent, approval.RoleAdmin), h.ListMine)
		requests.GET("/:id/pdf", middleware.RequireRole(
			approval.RoleAgent, approval.RoleTeamLead, approval.RoleDivisionManager,
			approval.RoleSalesDirector, approval.RoleAdmin,
		), h.PDF)
	}
}

// Create handles POST /requests for agents submitting a purchase request
// @Summary      Create purchase request
// @Description  Submits a multi-line (or legacy single-article) purchase request and routes it to the first approver tier
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestDTO  true  "Request payload"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	agentID, err := uuid.Parse(c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return
	}

	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.Create(c.Request.Context(), agentID, req)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListMine handles GET /requests/my
// @Summary      List my requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Router       /requests/my [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	agentID, err := uuid.Parse(c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return
	}

	requests, err := h.requestService.ListMine(c.Request.Context(), agentID)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// PDF handles GET /requests/:id/pdf, streaming the request document inline
// @Summary      Request PDF
// @Tags         requests
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path  string  true  "Request ID"
// @Success      200
// @Failure      404  {object}  response.Response
// @Router       /requests/{id}/pdf [get]
func (h *RequestHandler) PDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request id"))
		return
	}

	buf, err := h.requestService.RenderPDF(c.Request.Context(), id)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="request-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf)
}
