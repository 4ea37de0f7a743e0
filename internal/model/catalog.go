package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Buyer is a customer a purchase request is raised against.
type Buyer struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string      `gorm:"type:varchar(255);not null" json:"name"`
	Sites     []BuyerSite `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"sites,omitempty"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// BuyerSite is one physical location of a buyer. A request may optionally
// target a site, which must belong to the request's buyer.
type BuyerSite struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BuyerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"buyer_id"`
	SiteCode  string    `gorm:"type:varchar(50);not null" json:"site_code"`
	SiteName  string    `gorm:"type:varchar(255);not null" json:"site_name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Article is a catalog item with a list sell price. Line items priced from
// the catalog use SellPrice * quantity; discounted lines carry their own
// amount instead.
type Article struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU       string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name      string           `gorm:"type:varchar(255);not null" json:"name"`
	SellPrice *decimal.Decimal `gorm:"type:decimal(18,2)" json:"sell_price"` // Nullable until priced
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
