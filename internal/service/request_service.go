package service

import (
	"context"
	"fmt"
	"log"
	"os"

	"backend/internal/approval"
	"backend/internal/metrics"
	"backend/internal/model"
	"backend/internal/notify"
	"backend/internal/pdf"
	"backend/internal/repository"
	"backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type RequestItemDTO struct {
	ArticleID  string  `json:"article_id" binding:"required"`
	Quantity   int     `json:"quantity"`
	LineAmount *string `json:"line_amount"` // Optional; verbatim discounted amount when present
}

type CreateRequestDTO struct {
	BuyerID    string           `json:"buyer_id" binding:"required"`
	SiteID     string           `json:"site_id"`
	InvoiceRef string           `json:"invoice_ref"`
	Reason     string           `json:"reason"`
	Items      []RequestItemDTO `json:"items"`

	// Legacy single-article shape, used when Items is empty.
	ArticleID string  `json:"article_id"`
	Quantity  int     `json:"quantity"`
	Amount    *string `json:"amount"`
}

type RequestItemResponse struct {
	ArticleID  string `json:"article_id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	LineAmount string `json:"line_amount"`
}

type RequestResponse struct {
	ID           string                `json:"id"`
	AgentID      string                `json:"agent_id"`
	AgentName    string                `json:"agent_name,omitempty"`
	DivisionID   *string               `json:"division_id"`
	BuyerID      string                `json:"buyer_id"`
	BuyerCode    string                `json:"buyer_code,omitempty"`
	BuyerName    string                `json:"buyer_name,omitempty"`
	SiteID       *string               `json:"site_id"`
	SiteName     string                `json:"site_name,omitempty"`
	Amount       string                `json:"amount"`
	RequiredRole string                `json:"required_role"`
	Status       string                `json:"status"`
	InvoiceRef   string                `json:"invoice_ref"`
	Reason       string                `json:"reason"`
	Items        []RequestItemResponse `json:"items"`
	CreatedAt    string                `json:"created_at"`
}

// --- Interface ---

type RequestService interface {
	Create(ctx context.Context, agentID uuid.UUID, req CreateRequestDTO) (*RequestResponse, error)
	ListMine(ctx context.Context, agentID uuid.UUID) ([]RequestResponse, error)
	RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type requestService struct {
	tx       repository.TransactionManager
	requests repository.RequestRepository
	users    repository.UserRepository
	catalog  repository.CatalogRepository
	mail     notify.Dispatcher
	hub      *websocket.Hub
}

func NewRequestService(
	tx repository.TransactionManager,
	requests repository.RequestRepository,
	users repository.UserRepository,
	catalog repository.CatalogRepository,
	mail notify.Dispatcher,
	hub *websocket.Hub,
) RequestService {
	return &requestService{tx: tx, requests: requests, users: users, catalog: catalog, mail: mail, hub: hub}
}

// --- Implementation ---

func (s *requestService) Create(ctx context.Context, agentID uuid.UUID, dto CreateRequestDTO) (*RequestResponse, error) {
	agent, err := s.users.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	buyerID, err := uuid.Parse(dto.BuyerID)
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

	var siteID *uuid.UUID
	if dto.SiteID != "" {
		parsed, parseErr := uuid.Parse(dto.SiteID)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: invalid site_id", apperror.ErrValidation)
		}
		site, siteErr := s.catalog.FindSite(ctx, parsed)
		if siteErr != nil {
			return nil, siteErr
		}
		if site.BuyerID != buyerID {
			return nil, fmt.Errorf("%w: site does not belong to buyer", apperror.ErrValidation)
		}
		siteID = &parsed
	}

	request := model.Request{
		AgentID:    agent.ID,
		DivisionID: agent.DivisionID, // Division snapshot; later reassignment does not move the request
		BuyerID:    buyerID,
		SiteID:     siteID,
		InvoiceRef: dto.InvoiceRef,
		Reason:     dto.Reason,
		Status:     approval.StatusPending,
	}

	var items []model.RequestItem
	if len(dto.Items) > 0 {
		inputs, parseErr := parseItemInputs(dto.Items)
		if parseErr != nil {
			return nil, parseErr
		}
		ids := make([]uuid.UUID, 0, len(inputs))
		for _, in := range inputs {
			ids = append(ids, in.ArticleID)
		}
		prices, priceErr := s.catalog.PricesForArticles(ctx, ids)
		if priceErr != nil {
			return nil, priceErr
		}

		normalized, total, aggErr := approval.NormalizeItems(inputs, func(id uuid.UUID) (decimal.Decimal, bool) {
			p, ok := prices[id]
			return p, ok
		})
		if aggErr != nil {
			return nil, aggErr
		}
		request.Amount = total
		for _, line := range normalized {
			items = append(items, model.RequestItem{
				ArticleID:  line.ArticleID,
				Quantity:   line.Quantity,
				LineAmount: line.LineAmount,
			})
		}
	} else {
		amount := decimal.Zero
		if dto.Amount != nil {
			amount, err = decimal.NewFromString(*dto.Amount)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid amount", apperror.ErrValidation)
			}
		}
		quantity := dto.Quantity
		if quantity == 0 {
			quantity = 1
		}
		total, legacyErr := approval.NormalizeLegacy(amount, quantity)
		if legacyErr != nil {
			return nil, legacyErr
		}
		request.Amount = total
		request.Quantity = &quantity
		if dto.ArticleID != "" {
			articleID, parseErr := uuid.Parse(dto.ArticleID)
			if parseErr != nil {
				return nil, fmt.Errorf("%w: invalid article_id", apperror.ErrValidation)
			}
			request.ArticleID = &articleID
		}
	}

	request.RequiredRole = approval.RequiredRoleForAmount(request.Amount)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.requests.Create(txCtx, &request, items)
	})
	if err != nil {
		return nil, err
	}
	metrics.RequestsCreated.Inc()

	// Notification and broadcast are best-effort once the request is durable.
	s.notifyCreated(ctx, request.ID)

	full, err := s.requests.FindByIDFull(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	resp := toRequestResponse(*full)
	return &resp, nil
}

func (s *requestService) ListMine(ctx context.Context, agentID uuid.UUID) ([]RequestResponse, error) {
	requests, err := s.requests.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	result := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestResponse(r))
	}
	return result, nil
}

func (s *requestService) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	full, err := s.requests.FindByIDFull(ctx, id)
	if err != nil {
		return nil, err
	}
	return pdf.Render(buildDocument(*full))
}

func (s *requestService) notifyCreated(ctx context.Context, requestID uuid.UUID) {
	full, err := s.requests.FindByIDFull(ctx, requestID)
	if err != nil {
		log.Println("notify on create: reload failed:", err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(websocket.Event{
			Type:         "request_created",
			RequestID:    full.ID.String(),
			Status:       string(full.Status),
			RequiredRole: string(full.RequiredRole),
			Amount:       full.Amount.StringFixed(2),
		})
	}

	recipients, err := approverAddresses(ctx, s.users, full.RequiredRole, full.DivisionID)
	if err != nil {
		log.Println("notify on create: resolve recipients failed:", err)
		recipients = nil // fall through to the dispatcher's fallback mailbox
	}

	doc := buildDocument(*full)
	pdfBytes, err := pdf.Render(doc)
	if err != nil {
		log.Println("notify on create: render pdf failed:", err)
		return
	}

	agentName, agentEmail := agentContact(full)
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:5173"
	}

	msg := notify.Message{
		To:      recipients,
		CC:      notify.Addresses([]string{agentEmail}),
		Subject: fmt.Sprintf("[Fin Approvals] Request #%s - %s %s - EUR %s", shortID(full.ID), doc.BuyerCode, doc.BuyerName, full.Amount.StringFixed(2)),
		HTML: fmt.Sprintf(
			`<p>Hello,</p>
<p>New request from <b>%s</b> (Division: %s).</p>
<p><b>Total:</b> EUR %s &middot; <b>Awaiting:</b> %s</p>
<p><a href="%s/approvals" target="_blank">Open the approvals list</a></p>`,
			agentName, orDash(doc.DivisionName), full.Amount.StringFixed(2), full.RequiredRole, appURL),
		Attachment: pdfBytes,
		AttachName: fmt.Sprintf("request-%s.pdf", shortID(full.ID)),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		log.Println("notify on create: send failed:", err)
	}
}

// --- Helpers shared with the approval service ---

func parseItemInputs(items []RequestItemDTO) ([]approval.ItemInput, error) {
	inputs := make([]approval.ItemInput, 0, len(items))
	for i, item := range items {
		articleID, err := uuid.Parse(item.ArticleID)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d has invalid article_id", apperror.ErrValidation, i+1)
		}
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		input := approval.ItemInput{ArticleID: articleID, Quantity: quantity}
		if item.LineAmount != nil {
			amount, amountErr := decimal.NewFromString(*item.LineAmount)
			if amountErr != nil {
				return nil, fmt.Errorf("%w: item %d has invalid line_amount", apperror.ErrValidation, i+1)
			}
			input.LineAmount = &amount
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// approverAddresses resolves the notification recipients for a required
// role: division-scoped roles are filtered to the request's division, the
// sales director is not.
func approverAddresses(ctx context.Context, users repository.UserRepository, role approval.Role, divisionID *uuid.UUID) ([]string, error) {
	scope := divisionID
	if !role.DivisionScoped() {
		scope = nil
	}
	approvers, err := users.WithRole(ctx, role, scope)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(approvers))
	for _, u := range approvers {
		emails = append(emails, u.Email)
	}
	return notify.Addresses(emails), nil
}

func agentContact(req *model.Request) (name, email string) {
	if req.Agent != nil {
		return req.Agent.FullName(), req.Agent.Email
	}
	return "", ""
}

// buildDocument maps a fully preloaded request into the PDF snapshot,
// synthesizing a single line for the legacy single-article shape.
func buildDocument(req model.Request) pdf.Document {
	doc := pdf.Document{
		RequestID:    shortID(req.ID),
		CreatedAt:    req.CreatedAt,
		InvoiceRef:   req.InvoiceRef,
		Reason:       req.Reason,
		Amount:       req.Amount,
		Status:       string(req.Status),
		RequiredRole: string(req.RequiredRole),
	}
	if req.Agent != nil {
		doc.AgentName = req.Agent.FullName()
		doc.AgentPDA = req.Agent.PDANumber
	}
	if req.Division != nil {
		doc.DivisionName = req.Division.Name
	}
	if req.Buyer != nil {
		doc.BuyerCode = req.Buyer.Code
		doc.BuyerName = req.Buyer.Name
	}
	if req.Site != nil {
		doc.SiteCode = req.Site.SiteCode
		doc.SiteName = req.Site.SiteName
	}

	for _, item := range req.Items {
		line := pdf.Line{Quantity: item.Quantity, LineAmount: item.LineAmount}
		if item.Article != nil {
			line.SKU = item.Article.SKU
			line.Name = item.Article.Name
			if item.Article.SellPrice != nil {
				line.SellPrice = *item.Article.SellPrice
			}
		}
		doc.Lines = append(doc.Lines, line)
	}
	if len(doc.Lines) == 0 && req.ArticleID != nil {
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		line := pdf.Line{Quantity: quantity, LineAmount: req.Amount}
		if req.Article != nil {
			line.SKU = req.Article.SKU
			line.Name = req.Article.Name
			if req.Article.SellPrice != nil {
				line.SellPrice = *req.Article.SellPrice
			}
		}
		doc.Lines = append(doc.Lines, line)
	}

	for _, a := range req.Approvals {
		trail := pdf.Trail{
			ActedAt:      a.ActedAt,
			ApproverRole: string(a.ApproverRole),
			Action:       string(a.Action),
			Comment:      a.Comment,
		}
		if a.Approver != nil {
			trail.ApproverName = a.Approver.FullName()
		}
		doc.Approvals = append(doc.Approvals, trail)
	}
	return doc
}

func toRequestResponse(req model.Request) RequestResponse {
	resp := RequestResponse{
		ID:           req.ID.String(),
		AgentID:      req.AgentID.String(),
		BuyerID:      req.BuyerID.String(),
		Amount:       req.Amount.StringFixed(2),
		RequiredRole: string(req.RequiredRole),
		Status:       string(req.Status),
		InvoiceRef:   req.InvoiceRef,
		Reason:       req.Reason,
		Items:        []RequestItemResponse{},
		CreatedAt:    req.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if req.DivisionID != nil {
		s := req.DivisionID.String()
		resp.DivisionID = &s
	}
	if req.SiteID != nil {
		s := req.SiteID.String()
		resp.SiteID = &s
	}
	if req.Agent != nil {
		resp.AgentName = req.Agent.FullName()
	}
	if req.Buyer != nil {
		resp.BuyerCode = req.Buyer.Code
		resp.BuyerName = req.Buyer.Name
	}
	if req.Site != nil {
		resp.SiteName = req.Site.SiteName
	}
	for _, item := range req.Items {
		itemResp := RequestItemResponse{
			ArticleID:  item.ArticleID.String(),
			Quantity:   item.Quantity,
			LineAmount: item.LineAmount.StringFixed(2),
		}
		if item.Article != nil {
			itemResp.SKU = item.Article.SKU
			itemResp.Name = item.Article.Name
		}
		resp.Items = append(resp.Items, itemResp)
	}
	return resp
}

// shortID keeps email subjects and filenames readable.
func shortID(id uuid.UUID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
