package gmail

import (
	"context"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/workmate/internal/instrumentation"
)

// Client wraps the Gmail service.
type Client struct {
	svc     *gmail.UsersService
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client. Authentication comes from opts.
// metrics may be nil.
func NewClient(ctx context.Context, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, metrics: metrics}, nil
}

// CreateDraft saves msg as a draft and returns the draft ID.
func (c *Client) CreateDraft(ctx context.Context, msg EmailMessage) (string, error) {
	raw, err := buildRaw(msg)
	if err != nil {
		return "", err
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceGmail, instrumentation.OperationCreate)
	draft, err := c.svc.Drafts.Create(Me, &gmail.Draft{Message: &gmail.Message{Raw: raw}}).Context(ctx).Do()
	done(err)
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return draft.Id, nil
}

// Send sends msg immediately and returns the message ID.
func (c *Client) Send(ctx context.Context, msg EmailMessage) (string, error) {
	raw, err := buildRaw(msg)
	if err != nil {
		return "", err
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceGmail, instrumentation.OperationSend)
	sent, err := c.svc.Messages.Send(Me, &gmail.Message{Raw: raw}).Context(ctx).Do()
	done(err)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}

// Search returns up to limit messages matching a Gmail query
// ("from:boss", "subject:meeting"), newest first.
func (c *Client) Search(ctx context.Context, query string, limit int64) ([]MessageSummary, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	ids, err := c.list(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]MessageSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := c.metadata(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Latest returns the newest message matching query. ok is false when
// nothing matches.
func (c *Client) Latest(ctx context.Context, query string) (summary MessageSummary, ok bool, err error) {
	ids, err := c.list(ctx, query, 1)
	if err != nil || len(ids) == 0 {
		return MessageSummary{}, false, err
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceGmail, instrumentation.OperationGet)
	msg, err := c.svc.Messages.Get(Me, ids[0]).Format("full").Context(ctx).Do()
	done(err)
	if err != nil {
		return MessageSummary{}, false, fmt.Errorf("failed to get message: %w", err)
	}
	return toMessageSummary(msg), true, nil
}

func (c *Client) list(ctx context.Context, query string, limit int64) ([]string, error) {
	call := c.svc.Messages.List(Me).MaxResults(limit)
	if query != "" {
		call = call.Q(query)
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceGmail, instrumentation.OperationSearch)
	resp, err := call.Context(ctx).Do()
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (c *Client) metadata(ctx context.Context, id string) (MessageSummary, error) {
	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceGmail, instrumentation.OperationGet)
	msg, err := c.svc.Messages.Get(Me, id).
		Format("metadata").
		MetadataHeaders("From", "Subject").
		Context(ctx).
		Do()
	done(err)
	if err != nil {
		return MessageSummary{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return toMessageSummary(msg), nil
}

// toMessageSummary extracts sender, subject and snippet, falling back to
// placeholder text for missing values.
func toMessageSummary(msg *gmail.Message) MessageSummary {
	summary := MessageSummary{
		ID:      msg.Id,
		From:    UnknownSender,
		Subject: NoSubject,
		Snippet: NoSnippet,
	}
	if msg.Snippet != "" {
		summary.Snippet = msg.Snippet
	}
	if msg.Payload == nil {
		return summary
	}

	var fromSet, subjectSet bool
	for _, h := range msg.Payload.Headers {
		switch {
		case h.Name == "From" && !fromSet:
			summary.From, fromSet = h.Value, true
		case h.Name == "Subject" && !subjectSet:
			summary.Subject, subjectSet = h.Value, true
		}
	}
	return summary
}
