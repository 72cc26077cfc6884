package notification

import "github.com/google/uuid"

// Kind identifies a message template
type Kind string

const (
	KindBusinessCard Kind = "business_card"
	KindLongAbsence  Kind = "long_absence"
)

// MessageInput is the request body of both notification endpoints
type MessageInput struct {
	Phone        string     `json:"phone" binding:"required,kr_phone"`
	Name         string     `json:"name" binding:"required,max=100"`
	CompanyName  string     `json:"company_name" binding:"max=200"`
	ManagerName  string     `json:"manager_name" binding:"max=100"`
	ManagerPhone string     `json:"manager_phone" binding:"max=20"`
	CustomerID   *uuid.UUID `json:"customer_id"`
}

// SendResult is returned to the caller after a dispatch attempt
type SendResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	MessageID    string `json:"message_id,omitempty"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
}
