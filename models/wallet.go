package models

import (
	"strings"
	"time"
)

// TransactionType classifies a wallet ledger entry.
type TransactionType string

const (
	TxnDeposit TransactionType = "DEPOSIT"
	TxnPayment TransactionType = "PAYMENT"
	TxnRefund  TransactionType = "REFUND"
)

// TransactionStatus moves PENDING -> {SUCCESS | FAILED} at most once.
type TransactionStatus string

const (
	TxnPending TransactionStatus = "PENDING"
	TxnSuccess TransactionStatus = "SUCCESS"
	TxnFailed  TransactionStatus = "FAILED"
)

// Transaction is one append-only wallet ledger entry. Every balance change is
// mirrored by exactly one of these with matching amount and direction.
type Transaction struct {
	ID            string            `bson:"id" json:"id"`
	UserID        string            `bson:"userId" json:"userId"`
	Role          Role              `bson:"role" json:"role"` // which profile collection holds the balance
	Type          TransactionType   `bson:"type" json:"type"`
	Amount        float64           `bson:"amount" json:"amount"`
	Status        TransactionStatus `bson:"status" json:"status"`
	Reason        string            `bson:"reason,omitempty" json:"reason,omitempty"`
	AppointmentID string            `bson:"appointmentId,omitempty" json:"appointmentId,omitempty"`
	GatewayRef    string            `bson:"gatewayRef,omitempty" json:"gatewayRef,omitempty"` // payment-gateway reference for deposits
	CreatedAt     time.Time         `bson:"createdAt" json:"createdAt"`
	CompletedAt   *time.Time        `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	FailedAt      *time.Time        `bson:"failedAt,omitempty" json:"failedAt,omitempty"`
}

// RefundStatus is monotonic along REQUESTED -> {APPROVED -> PROCESSED | REJECTED}.
type RefundStatus string

const (
	RefundRequested RefundStatus = "REQUESTED"
	RefundApproved  RefundStatus = "APPROVED"
	RefundRejected  RefundStatus = "REJECTED"
	RefundProcessed RefundStatus = "PROCESSED"
)

// ParseRefundStatus normalizes a raw status string onto one of the four
// refund states; unknown values are rejected rather than silently matching
// nothing.
func ParseRefundStatus(raw string) (RefundStatus, bool) {
	switch s := RefundStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case RefundRequested, RefundApproved, RefundRejected, RefundProcessed:
		return s, true
	}
	return "", false
}

// ParseRefundDecision maps an admin decision string onto APPROVED/REJECTED.
func ParseRefundDecision(raw string) (RefundStatus, bool) {
	switch RefundStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case RefundApproved:
		return RefundApproved, true
	case RefundRejected:
		return RefundRejected, true
	}
	return "", false
}

// Refund references (never owns) the original wallet transaction it reverses.
// Its amount can never exceed the original transaction's amount.
type Refund struct {
	ID                    string       `bson:"id" json:"id"`
	UserID                string       `bson:"userId" json:"userId"`
	Role                  Role         `bson:"role" json:"role"`
	OriginalTransactionID string       `bson:"originalTransactionId" json:"originalTransactionId"`
	AppointmentID         string       `bson:"appointmentId,omitempty" json:"appointmentId,omitempty"`
	Amount                float64      `bson:"amount" json:"amount"`
	Status                RefundStatus `bson:"status" json:"status"`
	RequestedAt           time.Time    `bson:"requestedAt" json:"requestedAt"`
	ProcessedAt           *time.Time   `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
}

// RequestRefundInput is the payload for a user-initiated refund request.
type RequestRefundInput struct {
	OriginalTransactionID string  `json:"originalTransactionId" binding:"required"`
	Amount                float64 `json:"amount" binding:"required"`
	AppointmentID         string  `json:"appointmentId"`
}
