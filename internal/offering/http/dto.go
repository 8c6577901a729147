package http

import (
	"time"

	"github.com/nekogravitycat/service-booking-backend/internal/offering"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/request"
)

type ServiceResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewResponse(o *offering.Offering) ServiceResponse {
	return ServiceResponse{
		ID:              o.ID,
		Name:            o.Name,
		Description:     o.Description,
		DurationMinutes: o.EffectiveMinutes(),
		PriceCents:      o.PriceCents,
		IsActive:        o.IsActive,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type ListServicesRequest struct {
	request.ListParams
	Name     string `form:"name"`
	IsActive *bool  `form:"is_active"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=name price_cents created_at"`
}

type CreateRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	PriceCents      int64   `json:"price_cents" binding:"min=0"`
}

type UpdateRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	PriceCents      *int64  `json:"price_cents" binding:"omitempty,min=0"`
	IsActive        *bool   `json:"is_active"`
}
