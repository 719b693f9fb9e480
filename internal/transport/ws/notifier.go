package ws

import (
	"github.com/equilux/gridtalk/internal/domain"
)

// HubNotifier implements service.Notifier on top of the Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(receiverID string, msg *domain.Message) domain.DeliveryResult {
	return n.hub.Notify(receiverID, EventTypeNewMessage, msg)
}

func (n *HubNotifier) NotifyTradeResponse(senderID string, msg *domain.Message) domain.DeliveryResult {
	return n.hub.Notify(senderID, EventTypeTradeResponse, msg)
}
