package model

import (
	"fmt"
	"time"

	"codequest_admin/internal/common"
)

type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeCompleted TradeStatus = "completed"
	TradeCancelled TradeStatus = "cancelled"
)

type Trade struct {
	ID            string      `json:"id"`
	SellerID      string      `json:"sellerId"`
	SellerName    string      `json:"sellerName"`
	BuyerID       string      `json:"buyerId"`
	BuyerName     string      `json:"buyerName"`
	QuestionID    string      `json:"questionId"`
	QuestionTitle string      `json:"questionTitle"`
	Price         int         `json:"price"`
	Status        TradeStatus `json:"status"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Cancel only applies to pending trades; completed and cancelled are terminal.
func (t Trade) Cancel() (Trade, error) {
	if t.Status != TradePending {
		return t, fmt.Errorf("trade %s is %s and cannot be cancelled: %w", t.ID, t.Status, common.ErrInvalidTransition)
	}
	t.Status = TradeCancelled
	return t, nil
}

// UnlockOverride lets one team open one question regardless of trades.
type UnlockOverride struct {
	TeamID     string    `json:"teamId"`
	QuestionID string    `json:"questionId"`
	UnlockedAt time.Time `json:"unlockedAt"`
}
