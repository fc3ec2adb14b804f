package api

import (
	"context"

	"haul/internal/domain"
)

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// Conversation returns the full message history with another user.
func (c *Client) Conversation(ctx context.Context, userID string) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := c.get(ctx, "/messages/conversation/"+pathID(userID), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts a message and returns it as stored by the backend.
func (c *Client) SendMessage(ctx context.Context, receiverID, content string) (*domain.Message, error) {
	var msg domain.Message
	if err := c.post(ctx, "/messages", sendMessageRequest{ReceiverID: receiverID, Content: content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
