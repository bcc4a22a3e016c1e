package models

import (
	"time"

	"github.com/google/uuid"
)

// FreeCash is a per-user, time-boxed promotional credit. A nil CategoryID
// means the grant applies to every product; otherwise it is scoped to the
// category (and optionally a sub category). A grant is consumed whole by a
// single order and never reapplied, even if that order is later modified.
type FreeCash struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"not null;index:idx_free_cash_tenant;index:idx_free_cash_tenant_user"`
	UserID   uuid.UUID `json:"userId" gorm:"type:uuid;not null;index:idx_free_cash_tenant_user"`

	Amount        float64 `json:"amount" gorm:"type:decimal(10,2);not null"`
	MinimumAmount float64 `json:"minimumAmount" gorm:"type:decimal(10,2);not null;default:0"`

	StartDate time.Time `json:"startDate" gorm:"not null"`
	EndDate   time.Time `json:"endDate" gorm:"not null;index"`

	// Scope: nil category => all products
	CategoryID    *uuid.UUID `json:"categoryId,omitempty" gorm:"type:uuid"`
	SubCategoryID *uuid.UUID `json:"subCategoryId,omitempty" gorm:"type:uuid"`

	IsApplied bool       `json:"isApplied" gorm:"default:false"`
	IsUsed    bool       `json:"isUsed" gorm:"default:false"`
	IsExpired bool       `json:"isExpired" gorm:"default:false"`
	UsedDate  *time.Time `json:"usedDate,omitempty"`
	OrderID   *uuid.UUID `json:"orderId,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy *string   `json:"createdBy,omitempty"`
}

// TableName returns the table name for the FreeCash model
func (FreeCash) TableName() string {
	return "free_cash"
}

// AppliesToAllProducts reports whether the grant has no category scope.
func (f *FreeCash) AppliesToAllProducts() bool {
	return f.CategoryID == nil
}

// CreateFreeCashRequest represents a request to grant free cash to users
type CreateFreeCashRequest struct {
	UserIDs       []string  `json:"userIds" binding:"required,min=1"`
	Amount        float64   `json:"amount" binding:"required,gt=0"`
	MinimumAmount float64   `json:"minimumAmount"`
	StartDate     time.Time `json:"startDate" binding:"required"`
	EndDate       time.Time `json:"endDate" binding:"required"`
	CategoryID    *string   `json:"categoryId,omitempty"`
	SubCategoryID *string   `json:"subCategoryId,omitempty"`
}

type FreeCashResponse struct {
	Success bool      `json:"success"`
	Data    *FreeCash `json:"data"`
	Message *string   `json:"message,omitempty"`
}

type FreeCashListResponse struct {
	Success    bool            `json:"success"`
	Data       []FreeCash      `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}
