package usecase

import (
	"context"
	"fmt"
	"log"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/service"
	"tailorchat/pkg/errors"
)

const EventOrderStatusChanged = "order_status_changed"

// OrderUseCase relays order status changes from the order system into the
// conversations attached to that order.
type OrderUseCase struct {
	conversations *ConversationUseCase
	messages      *MessageUseCase
	notifications *NotificationUseCase
}

func NewOrderUseCase(conversations *ConversationUseCase, messages *MessageUseCase, notifications *NotificationUseCase) *OrderUseCase {
	return &OrderUseCase{
		conversations: conversations,
		messages:      messages,
		notifications: notifications,
	}
}

type OrderStatusInput struct {
	OrderID string
	Status  string
	Note    string
}

// StatusChanged appends a system message to every conversation of the order and
// notifies every participant except the actor. Admins may post for any order; others only for
// orders they are a participant of.
func (uc *OrderUseCase) StatusChanged(ctx context.Context, actor service.Identity, input OrderStatusInput) ([]*entity.Message, error) {
	if input.Status == "" {
		return nil, errors.BadRequest("Order status is required", nil)
	}

	conversations, err := uc.conversations.ConversationsForOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return nil, errors.NotFound("Conversation for order", nil)
	}

	if actor.Role != entity.RoleAdmin {
		allowed := false
		for _, conv := range conversations {
			if conv.HasParticipant(actor.UserID) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, errors.Forbidden("You cannot post updates for this order", nil)
		}
	}

	content := fmt.Sprintf("Order %s status changed to %s", input.OrderID, input.Status)
	if input.Note != "" {
		content += ": " + input.Note
	}
	data := map[string]string{"order_id": input.OrderID, "status": input.Status}

	var appended []*entity.Message
	for _, conv := range conversations {
		msg, err := uc.messages.AppendSystem(ctx, conv.ID, EventOrderStatusChanged, content, data)
		if err != nil {
			log.Printf("OrderStatusChanged Error: conversation %s: %v", conv.ID, err)
			return appended, err
		}
		appended = append(appended, msg)

		if uc.notifications != nil {
			for _, id := range conv.ParticipantIDs {
				if id == actor.UserID {
					continue
				}
				uc.notifications.Notify(ctx, id, orderUpdateNotification(input.OrderID, input.Status, conv.ID))
			}
		}
	}
	return appended, nil
}
