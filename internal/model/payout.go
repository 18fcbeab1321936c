package model

import "time"

type PayoutRoute string

const (
	RouteVault    PayoutRoute = "vault"
	RouteTreasury PayoutRoute = "treasury"
)

type PayoutStatus string

const (
	StatusAwaitingSignature PayoutStatus = "awaiting_signature"
	StatusConfirmed         PayoutStatus = "confirmed"
)

type Payout struct {
	ID             string       `gorm:"type:varchar(36);primaryKey"`
	Address        string       `gorm:"type:varchar(58);index;not null"`
	AssetID        uint64       `gorm:"not null"`
	Decimals       uint64       `gorm:"not null"`
	Gross          string       `gorm:"not null"`
	Fee            string       `gorm:"not null"`
	Net            string       `gorm:"not null"`
	NetBaseUnits   uint64       `gorm:"not null"`
	FeeBps         uint64       `gorm:"not null"`
	Route          PayoutRoute  `gorm:"type:varchar(16);not null"`
	Status         PayoutStatus `gorm:"type:varchar(32);not null"`
	OptInTxID      string
	PendingTxn     []byte
	TxID           string
	ConfirmedRound uint64
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}
