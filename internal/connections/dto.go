package connections

type ConnectRequest struct {
	RecipientID string `json:"recipientId" binding:"required,max=128"`
	Message     string `json:"message" binding:"max=280"`
}

type RespondRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type ListQuery struct {
	Status    Status `form:"status"`
	Direction string `form:"direction" binding:"omitempty,oneof=incoming outgoing"`
}
