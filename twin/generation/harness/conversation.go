package harness

import "context"

type conversationKey struct{}

// WithConversationID tags ctx with the id of the conversation being served.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey{}, id)
}

// ConversationID returns the conversation id carried by ctx, or "".
func ConversationID(ctx context.Context) string {
	id, _ := ctx.Value(conversationKey{}).(string)
	return id
}
