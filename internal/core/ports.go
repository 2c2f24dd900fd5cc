package core

import (
	"context"
)

// TextGenerator defines the transport to a generative text service. Generate
// sends a system instruction plus a user payload and returns the raw response
// text. Errors are transport failures and are subject to the retry policy.
type TextGenerator interface {
	Generate(ctx context.Context, systemInstruction string, userPayload string) (string, error)
}

// BodyFetcher retrieves the raw MIME body tree for a message id.
type BodyFetcher interface {
	GetBody(ctx context.Context, id string) (*MessageBody, error)
}

// MessageStore yields message metadata and bodies from a mailbox provider.
type MessageStore interface {
	BodyFetcher

	// ListMessageIDs returns the ids of messages matching a provider query.
	ListMessageIDs(ctx context.Context, query string, maxResults int64) ([]string, error)

	// GetMetadata returns the metadata for a single message.
	GetMetadata(ctx context.Context, id string) (*Message, error)
}
