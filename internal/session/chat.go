package session

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/store"
)

var chatPolicy = bluemonday.StrictPolicy()

const maxChatLen = 500

// PostMessage appends a player chat line and fans it out.
func (c *Coordinator) PostMessage(ctx context.Context, code, playerID, rawBody string) (*store.ChatMessageRow, error) {
	body := strings.TrimSpace(chatPolicy.Sanitize(rawBody))
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > maxChatLen {
		body = string([]rune(body)[:maxChatLen])
	}

	p, err := c.store.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if p.SessionCode != code {
		return nil, ErrPlayerNotFound
	}

	m, err := c.store.InsertChatMessage(ctx, store.ChatMessageRow{
		SessionCode: code,
		PlayerID:    p.ID,
		Pseudo:      p.Pseudo,
		Type:        store.ChatUser,
		Body:        body,
	})
	if err != nil {
		return nil, err
	}
	c.feed.Publish(changefeed.KindChatMessage, code, 0, chatPayload(m))
	return &m, nil
}
