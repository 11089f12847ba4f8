package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"TgFlow/bot/flow"
)

const chatStatesCollection = "chat_states"

// SaveChatState upserts a chat state by {chat_id, runner}.
func (m *MongoDB) SaveChatState(ctx context.Context, state *flow.ChatState) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(chatStatesCollection)

	if state.LastUpdate.IsZero() {
		state.LastUpdate = time.Now()
	}

	filter := chatFilter(state.ChatID, state.Runner)
	update := bson.D{{Key: "$set", Value: state}}
	opts := options.Update().SetUpsert(true)

	if _, err = collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("mongodb update error: %w", err)
	}
	return nil
}

// LoadChatState returns the chat state stored by {chat_id, runner}, or nil when the chat is new.
func (m *MongoDB) LoadChatState(ctx context.Context, chatID int64, runner string) (*flow.ChatState, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(chatStatesCollection)

	var state flow.ChatState
	err = collection.FindOne(ctx, chatFilter(chatID, runner)).Decode(&state)
	if err != nil {
		return nil, m.findError(err)
	}

	return &state, nil
}

func chatFilter(chatID int64, runner string) bson.D {
	return bson.D{{Key: "chat_id", Value: chatID}, {Key: "runner", Value: runner}}
}

var _ flow.StateRepository = (*MongoDB)(nil)
