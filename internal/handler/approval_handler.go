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

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approverOnly := middleware.RequireRole(
		approval.RoleTeamLead, approval.RoleDivisionManager, approval.RoleSalesDirector,
	)

	approvals := router.Group("/approvals")
	{
		approvals.GET("/pending", approverOnly, h.ListPending)
		approvals.POST("/:id/act", approverOnly, h.Act)
		approvals.GET("/my-history", approverOnly, h.MyHistory)
		approvals.GET("/history/:id", middleware.RequireRole(
			approval.RoleAgent, approval.RoleTeamLead, approval.RoleDivisionManager,
			approval.RoleSalesDirector, approval.RoleAdmin,
		), h.History)
	}
}

// ListPending handles GET /approvals/pending
// @Summary      Pending approvals for the caller
// @Description  Lists pending requests awaiting the caller's role, restricted to their division for division-scoped roles
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Router       /approvals/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return
	}

	requests, err := h.approvalService.ListPending(c.Request.Context(), actor)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// Act handles POST /approvals/:id/act
// @Summary      Approve or reject a request
// @Description  Applies one approval transition; approvals escalate through the role ladder by amount, rejections are terminal
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Request ID"
// @Param        payload  body      service.ActRequestDTO  true  "Action payload"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /approvals/{id}/act [post]
func (h *ApprovalHandler) Act(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request id"))
		return
	}

	var req service.ActRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	action, err := approval.ParseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.approvalService.Act(c.Request.Context(), requestID, actor, action, req.Comment)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// History handles GET /approvals/history/:id
// @Summary      Approval trail of a request
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]service.ApprovalActionResponse}
// @Router       /approvals/history/{id} [get]
func (h *ApprovalHandler) History(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request id"))
		return
	}

	actions, err := h.approvalService.History(c.Request.Context(), requestID)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, actions))
}

// MyHistory handles GET /approvals/my-history
// @Summary      Actions taken by the calling approver
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ApprovalActionResponse}
// @Router       /approvals/my-history [get]
func (h *ApprovalHandler) MyHistory(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return
	}

	actions, err := h.approvalService.MyHistory(c.Request.Context(), actor.ID)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, actions))
}
