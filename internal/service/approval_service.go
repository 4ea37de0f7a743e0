package service

import (
	"context"
	"fmt"
	"log"

	"backend/internal/approval"
	"backend/internal/metrics"
	"backend/internal/model"
	"backend/internal/notify"
	"backend/internal/pdf"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
)

// --- DTOs ---

type ActRequestDTO struct {
	Action  string `json:"action" binding:"required,oneof=approved rejected"`
	Comment string `json:"comment"`
}

type ApprovalActionResponse struct {
	ID           string `json:"id"`
	RequestID    string `json:"request_id"`
	ApproverID   string `json:"approver_id"`
	ApproverName string `json:"approver_name,omitempty"`
	ApproverRole string `json:"approver_role"`
	Action       string `json:"action"`
	Comment      string `json:"comment"`
	ActedAt      string `json:"acted_at"`
}

// --- Interface ---

type ApprovalService interface {
	// ListPending returns the queue an approver may act on: their role's
	// pending requests, division-filtered for division-scoped roles.
	ListPending(ctx context.Context, actor approval.Actor) ([]RequestResponse, error)
	// Act applies one approve/reject transition atomically.
	Act(ctx context.Context, requestID uuid.UUID, actor approval.Actor, action approval.Action, comment string) (*RequestResponse, error)
	History(ctx context.Context, requestID uuid.UUID) ([]ApprovalActionResponse, error)
	MyHistory(ctx context.Context, approverID uuid.UUID) ([]ApprovalActionResponse, error)
}

type approvalService struct {
	tx       repository.TransactionManager
	requests repository.RequestRepository
	users    repository.UserRepository
	mail     notify.Dispatcher
	hub      *websocket.Hub
}

func NewApprovalService(
	tx repository.TransactionManager,
	requests repository.RequestRepository,
	users repository.UserRepository,
	mail notify.Dispatcher,
	hub *websocket.Hub,
) ApprovalService {
	return &approvalService{tx: tx, requests: requests, users: users, mail: mail, hub: hub}
}

// --- Implementation ---

func (s *approvalService) ListPending(ctx context.Context, actor approval.Actor) ([]RequestResponse, error) {
	var divisionID *uuid.UUID
	if actor.Role.DivisionScoped() {
		divisionID = actor.DivisionID
	}
	requests, err := s.requests.ListPending(ctx, actor.Role, divisionID)
	if err != nil {
		return nil, err
	}
	result := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestResponse(r))
	}
	return result, nil
}

func (s *approvalService) Act(ctx context.Context, requestID uuid.UUID, actor approval.Actor, action approval.Action, comment string) (*RequestResponse, error) {
	var outcome approval.Outcome

	// Read, check, write as one atomic unit: the row lock serializes
	// concurrent actors, so the first transition to commit flips status
	// away from pending and later attempts fail the precondition.
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requests.FindByIDForUpdate(txCtx, requestID)
		if findErr != nil {
			return findErr
		}

		var actErr error
		outcome, actErr = approval.Act(request.State(), actor, action)
		if actErr != nil {
			return actErr
		}

		record := model.ApprovalAction{
			RequestID:    requestID,
			ApproverID:   actor.ID,
			ApproverRole: actor.Role,
			Action:       action,
			Comment:      comment,
		}
		if appendErr := s.requests.AppendAction(txCtx, &record); appendErr != nil {
			return appendErr
		}

		return s.requests.UpdateState(txCtx, requestID, outcome.Status, outcome.RequiredRole)
	})
	if err != nil {
		return nil, err
	}

	metrics.ApprovalActions.WithLabelValues(string(action)).Inc()
	if outcome.Escalated {
		metrics.Escalations.Inc()
	}

	// The transition is durable; everything below is best-effort.
	s.notifyActed(ctx, requestID, actor, action, outcome)

	full, err := s.requests.FindByIDFull(ctx, requestID)
	if err != nil {
		return nil, err
	}
	resp := toRequestResponse(*full)
	return &resp, nil
}

func (s *approvalService) History(ctx context.Context, requestID uuid.UUID) ([]ApprovalActionResponse, error) {
	actions, err := s.requests.History(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return toActionResponses(actions), nil
}

func (s *approvalService) MyHistory(ctx context.Context, approverID uuid.UUID) ([]ApprovalActionResponse, error) {
	actions, err := s.requests.ActionsByApprover(ctx, approverID)
	if err != nil {
		return nil, err
	}
	return toActionResponses(actions), nil
}

// notifyActed emails the request's current required-role approvers (the
// next tier after an escalation) with the refreshed PDF, CCs the agent,
// and pushes a dashboard event. Failures are logged, never surfaced.
func (s *approvalService) notifyActed(ctx context.Context, requestID uuid.UUID, actor approval.Actor, action approval.Action, outcome approval.Outcome) {
	full, err := s.requests.FindByIDFull(ctx, requestID)
	if err != nil {
		log.Println("notify on act: reload failed:", err)
		return
	}

	if s.hub != nil {
		eventType := "request_" + string(outcome.Status)
		if outcome.Escalated {
			eventType = "request_escalated"
		}
		s.hub.BroadcastEvent(websocket.Event{
			Type:         eventType,
			RequestID:    full.ID.String(),
			Status:       string(full.Status),
			RequiredRole: string(full.RequiredRole),
			Amount:       full.Amount.StringFixed(2),
		})
	}

	recipients, err := approverAddresses(ctx, s.users, full.RequiredRole, full.DivisionID)
	if err != nil {
		log.Println("notify on act: resolve recipients failed:", err)
		recipients = nil // dispatcher falls back to the operator mailbox
	}

	doc := buildDocument(*full)
	pdfBytes, err := pdf.Render(doc)
	if err != nil {
		log.Println("notify on act: render pdf failed:", err)
		return
	}

	approverName := string(actor.Role)
	if u, userErr := s.users.FindByID(ctx, actor.ID); userErr == nil {
		approverName = u.FullName()
	}
	_, agentEmail := agentContact(full)

	verb := "approved"
	if action == approval.ActionRejected {
		verb = "rejected"
	}

	msg := notify.Message{
		To:      recipients,
		CC:      notify.Addresses([]string{agentEmail}),
		Subject: fmt.Sprintf("[Fin Approvals] %s - #%s - EUR %s", verbTitle(action), shortID(full.ID), full.Amount.StringFixed(2)),
		HTML: fmt.Sprintf(
			`<p>Request #%s was <b>%s</b> by %s (%s).</p>
<p>Buyer: %s / %s &middot; Total: EUR %s &middot; Status: %s</p>`,
			shortID(full.ID), verb, approverName, actor.Role,
			doc.BuyerCode, doc.BuyerName, full.Amount.StringFixed(2), full.Status),
		Attachment: pdfBytes,
		AttachName: fmt.Sprintf("request-%s.pdf", shortID(full.ID)),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		log.Println("notify on act: send failed:", err)
	}
}

func verbTitle(action approval.Action) string {
	if action == approval.ActionRejected {
		return "REJECTION"
	}
	return "APPROVAL"
}

func toActionResponses(actions []model.ApprovalAction) []ApprovalActionResponse {
	result := make([]ApprovalActionResponse, 0, len(actions))
	for _, a := range actions {
		resp := ApprovalActionResponse{
			ID:           a.ID.String(),
			RequestID:    a.RequestID.String(),
			ApproverID:   a.ApproverID.String(),
			ApproverRole: string(a.ApproverRole),
			Action:       string(a.Action),
			Comment:      a.Comment,
			ActedAt:      a.ActedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if a.Approver != nil {
			resp.ApproverName = a.Approver.FullName()
		}
		result = append(result, resp)
	}
	return result
}
