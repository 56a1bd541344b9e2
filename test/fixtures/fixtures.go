package fixtures

import (
	"github.com/i-snrdra/SWAG/internal/model"
)

var (
	TestRuleHelp = model.AutoReplyCreateRequest{
		Keyword:  "help",
		Response: "Contact support at support@example.com",
	}

	TestRulePrice = model.AutoReplyCreateRequest{
		Keyword:  "price",
		Response: "Our price list is at example.com/prices",
	}
)

func NewTestSendRequest(receiver, message string) model.SendRequest {
	return model.SendRequest{
		Receiver: receiver,
		Message:  message,
	}
}

func NewTestGroupSendRequest(groupID, message string) model.SendRequest {
	return model.SendRequest{
		Receiver: groupID,
		Message:  message,
		IsGroup:  true,
	}
}

var ValidReceivers = []string{
	"15551234567",
	"+1 (555) 123-4567",
	"6281234567890",
}
