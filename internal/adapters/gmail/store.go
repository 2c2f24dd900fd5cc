package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailgate/internal/config"
	"mailgate/internal/core"
)

const gmailUser = "me"

// Store is a MessageStore backed by the Gmail API.
type Store struct {
	svc    *gmailapi.Service
	logger *zap.Logger
}

// NewStore creates a Gmail-backed message store from stored OAuth files: an
// installed-app client secret (credentials_file) and a previously authorized
// user token (token_file). Missing or unreadable files fail here, before any
// message is processed.
func NewStore(ctx context.Context, cfg config.GmailConfig, logger *zap.Logger) (*Store, error) {
	creds, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read Gmail credentials file %q: %w", cfg.CredentialsFile, err)
	}

	oauthCfg, err := google.ConfigFromJSON(creds, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Gmail credentials: %w", err)
	}

	tokenBytes, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read Gmail token file %q (authorize first): %w", cfg.TokenFile, err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(tokenBytes, token); err != nil {
		return nil, fmt.Errorf("failed to parse Gmail token: %w", err)
	}

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Store{svc: svc, logger: logger}, nil
}

// ListMessageIDs returns the ids of messages matching a Gmail search query.
func (s *Store) ListMessageIDs(ctx context.Context, query string, maxResults int64) ([]string, error) {
	resp, err := s.svc.Users.Messages.List(gmailUser).
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list Gmail messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}

	s.logger.Debug("Listed Gmail messages",
		zap.String("query", query),
		zap.Int("count", len(ids)))

	return ids, nil
}

// GetMetadata returns the metadata for a single message: From, Subject and
// Date headers plus the provider-supplied snippet.
func (s *Store) GetMetadata(ctx context.Context, id string) (*core.Message, error) {
	msg, err := s.svc.Users.Messages.Get(gmailUser, id).
		Format("metadata").
		MetadataHeaders("From", "Subject", "Date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for message %s: %w", id, err)
	}

	out := &core.Message{ID: id, Snippet: msg.Snippet}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				out.From = h.Value
			case "Subject":
				out.Subject = h.Value
			case "Date":
				out.Date = h.Value
			}
		}
	}

	return out, nil
}

// GetBody returns the full MIME body tree for a message.
func (s *Store) GetBody(ctx context.Context, id string) (*core.MessageBody, error) {
	msg, err := s.svc.Users.Messages.Get(gmailUser, id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch body for message %s: %w", id, err)
	}

	return bodyFromPart(msg.Payload), nil
}

// bodyFromPart converts Gmail's message part tree into the core body tree.
func bodyFromPart(part *gmailapi.MessagePart) *core.MessageBody {
	if part == nil {
		return &core.MessageBody{}
	}

	body := &core.MessageBody{MimeType: part.MimeType}
	if part.Body != nil {
		body.Data = part.Body.Data
	}
	for _, child := range part.Parts {
		body.Parts = append(body.Parts, bodyFromPart(child))
	}

	return body
}
