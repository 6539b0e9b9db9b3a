// Package lineapi wraps the outbound half of the LINE Messaging API behind a
// small interface so the registration flow can be exercised without network
// access.
package lineapi

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Messenger is the outbound LINE surface the rest of the service uses.
type Messenger interface {
	// Reply answers the event that produced replyToken with a text message.
	Reply(ctx context.Context, replyToken, text string) error
	// Push sends a text message to a user outside a reply context.
	Push(ctx context.Context, to, text string) error
	// Profile returns the current display name of a user.
	Profile(ctx context.Context, userID string) (string, error)
	// BotInfo verifies the channel credentials against the platform.
	BotInfo(ctx context.Context) error
}

// Client implements Messenger on the line-bot-sdk v7 client.
type Client struct {
	bot *linebot.Client
}

func New(channelSecret, channelToken string) (*Client, error) {
	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, fmt.Errorf("create line client: %w", err)
	}
	return &Client{bot: bot}, nil
}

func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	if _, err := c.bot.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}

func (c *Client) Push(ctx context.Context, to, text string) error {
	if _, err := c.bot.PushMessage(to, linebot.NewTextMessage(text)).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	return nil
}

func (c *Client) Profile(ctx context.Context, userID string) (string, error) {
	res, err := c.bot.GetProfile(userID).WithContext(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return res.DisplayName, nil
}

func (c *Client) BotInfo(ctx context.Context) error {
	if _, err := c.bot.GetBotInfo().WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	return nil
}
