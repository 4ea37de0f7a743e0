package model

import (
	"time"

	"backend/internal/approval"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request is one purchase/discount request routed through the approval
// chain. Amount and the division snapshot are fixed at creation; only the
// state machine mutates status and required_role afterwards.
type Request struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AgentID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"agent_id"`
	Agent      *User      `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	DivisionID *uuid.UUID `gorm:"type:uuid;index" json:"division_id"` // Division at creation time, not a live reference
	Division   *Division  `gorm:"foreignKey:DivisionID" json:"division,omitempty"`
	BuyerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"buyer_id"`
	Buyer      *Buyer     `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SiteID     *uuid.UUID `gorm:"type:uuid" json:"site_id"`
	Site       *BuyerSite `gorm:"foreignKey:SiteID" json:"site,omitempty"`

	// Legacy single-article shape; nil when Items rows exist.
	ArticleID *uuid.UUID `gorm:"type:uuid" json:"article_id"`
	Article   *Article   `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
	Quantity  *int       `json:"quantity"`

	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	RequiredRole approval.Role   `gorm:"type:varchar(50);not null;index" json:"required_role"`
	Status       approval.Status `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	InvoiceRef   string          `gorm:"type:varchar(100)" json:"invoice_ref"`
	Reason       string          `gorm:"type:text" json:"reason"`

	Items     []RequestItem    `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Approvals []ApprovalAction `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"approvals,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State projects the request into the transition machine's input.
func (r Request) State() approval.RequestState {
	return approval.RequestState{
		Status:       r.Status,
		RequiredRole: r.RequiredRole,
		DivisionID:   r.DivisionID,
		Amount:       r.Amount,
	}
}

// RequestItem is one article line of a multi-item request, owned by its
// request. LineAmount may embed an already-applied discount, so it is not
// necessarily SellPrice * Quantity.
type RequestItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	ArticleID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"article_id"`
	Article    *Article        `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	LineAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"line_amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ApprovalAction is one append-only audit record of an approver acting on
// a request. Role is snapshotted at action time; the log is never mutated
// or deleted and is the sole source for reconstructing an approval path.
type ApprovalAction struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	ApproverID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"approver_id"`
	Approver     *User           `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	ApproverRole approval.Role   `gorm:"type:varchar(50);not null" json:"approver_role"`
	Action       approval.Action `gorm:"type:varchar(20);not null" json:"action"`
	Comment      string          `gorm:"type:text" json:"comment"`
	ActedAt      time.Time       `gorm:"autoCreateTime;index" json:"acted_at"`
}
