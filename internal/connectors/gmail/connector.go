package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"omnigrade/internal"
	"omnigrade/internal/config"
)

const pageSize = 100

type Connector struct {
	service *gmail.Service
	query   string
	limiter *RateLimiter
}

func NewConnector(ctx context.Context, cfg config.Config) (*Connector, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &Connector{service: svc, query: cfg.GmailQuery, limiter: NewRateLimiter(cfg.GmailRateLimitRPS)}, nil
}

// FetchInbox returns up to max messages under label, newest first, paging
// through the list API as needed.
func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	refs, err := c.listIDs(ctx, label, max)
	if err != nil {
		return nil, err
	}

	out := make([]internal.FetchedMailMessage, 0, len(refs))
	for _, id := range refs {
		msg, ok, err := c.fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (c *Connector) listIDs(ctx context.Context, label string, max int) ([]string, error) {
	var ids []string
	pageToken := ""
	for len(ids) < max {
		call := c.service.Users.Messages.List("me").LabelIds(label).MaxResults(int64(min(pageSize, max-len(ids)))).Context(ctx)
		if c.query != "" {
			call = call.Q(c.query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var resp *gmail.ListMessagesResponse
		err := withRetry(ctx, c.limiter, func() (err error) {
			resp, err = call.Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("gmail list: %w", err)
		}
		for _, m := range resp.Messages {
			if m.Id != "" {
				ids = append(ids, m.Id)
			}
		}
		if resp.NextPageToken == "" || len(resp.Messages) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}
	return ids, nil
}

func (c *Connector) fetch(ctx context.Context, id string) (internal.FetchedMailMessage, bool, error) {
	var rawResp *gmail.Message
	err := withRetry(ctx, c.limiter, func() (err error) {
		rawResp, err = c.service.Users.Messages.Get("me", id).Format("raw").Context(ctx).Do()
		return err
	})
	if err != nil {
		return internal.FetchedMailMessage{}, false, fmt.Errorf("gmail get %s: %w", id, err)
	}
	if rawResp.Raw == "" {
		return internal.FetchedMailMessage{}, false, nil
	}
	raw, err := decodeBase64URL(rawResp.Raw)
	if err != nil {
		return internal.FetchedMailMessage{}, false, err
	}

	msg := internal.FetchedMailMessage{
		Provider:   "gmail",
		MessageID:  id,
		ReceivedAt: time.UnixMilli(rawResp.InternalDate).UTC().Format(time.RFC3339),
		Raw:        raw,
	}
	if parsed, err := mail.ReadMessage(strings.NewReader(string(raw))); err == nil {
		h := parsed.Header
		msg.Subject = h.Get("Subject")
		msg.From = h.Get("From")
		if v := strings.TrimSpace(h.Get("Message-ID")); v != "" {
			msg.MessageID = v
		}
		if t, err := mail.ParseDate(h.Get("Date")); err == nil {
			msg.ReceivedAt = t.UTC().Format(time.RFC3339)
		}
	}
	return msg, true, nil
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}
