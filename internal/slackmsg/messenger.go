// Package slackmsg wraps the Slack Web API client with the operations the
// notifier needs: posting messages, checking the token, and validating
// configured channel ids.
package slackmsg

import (
	"context"
	"fmt"
	"sort"

	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"
)

// Slack API error strings the notifier distinguishes. Anything else is
// treated as an infrastructure failure.
const (
	errInvalidAuth    = "invalid_auth"
	errNotAuthed      = "not_authed"
	errInvalidChannel = "invalid_channel"
	errNotInChannel   = "not_in_channel"
)

// Messenger posts notifications to Slack channels.
type Messenger struct {
	api *slack.Client
}

// New returns a messenger using the given bot token.
func New(token string) *Messenger {
	return &Messenger{api: slack.New(token)}
}

// NewWithClient wraps an existing client, used by tests to point at a fake
// API server.
func NewWithClient(api *slack.Client) *Messenger {
	return &Messenger{api: api}
}

// CheckAuth verifies the configured token. It returns false with no error
// when the token is rejected, and an error only for other failures.
func (m *Messenger) CheckAuth(ctx context.Context) (bool, error) {
	_, err := m.api.AuthTestContext(ctx)
	if err == nil {
		return true, nil
	}
	if msg := err.Error(); msg == errInvalidAuth || msg == errNotAuthed {
		return false, nil
	}
	return false, fmt.Errorf("slack auth check failed: %w", err)
}

// ValidateChannels checks every configured channel id with a cheap read-only
// call, concurrently. It returns one message per bad channel, in channel-name
// order, or an error if any check failed for an unexpected reason.
func (m *Messenger) ValidateChannels(ctx context.Context, channels map[string]string) ([]string, error) {
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	problems := make([]string, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			params := &slack.GetScheduledMessagesParameters{Channel: channels[name]}
			_, _, err := m.api.GetScheduledMessagesContext(ctx, params)
			if err == nil {
				return nil
			}
			switch err.Error() {
			case errInvalidChannel:
				problems[i] = fmt.Sprintf("invalid id for Slack channel %q", name)
				return nil
			case errNotInChannel:
				problems[i] = fmt.Sprintf("Slack key does not have access to channel %q", name)
				return nil
			default:
				return fmt.Errorf("failed to validate Slack channel %q: %w", name, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, problem := range problems {
		if problem != "" {
			out = append(out, problem)
		}
	}
	return out, nil
}

// PostMessage sends a plain text message to a channel.
func (m *Messenger) PostMessage(ctx context.Context, channelID, text string) error {
	_, _, err := m.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to post Slack message: %w", err)
	}
	return nil
}

// PostBlockMessage sends a message as a single mrkdwn section block.
func (m *Messenger) PostBlockMessage(ctx context.Context, channelID, text string) error {
	block := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil, nil,
	)
	_, _, err := m.api.PostMessageContext(ctx, channelID, slack.MsgOptionBlocks(block))
	if err != nil {
		return fmt.Errorf("failed to post Slack message: %w", err)
	}
	return nil
}
