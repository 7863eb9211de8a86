// Package telegram sends analysis report summaries via the Telegram Bot API.
// It formats the overall score, category scores and the weakest triggers into
// a MarkdownV2 message and retries delivery with a linear backoff.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

// sender is the part of tgbotapi.BotAPI the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// Report is the summary of one analysis run.
type Report struct {
	AnalysisID string
	PageName   string
	Industry   string
	Score      models.AggregateScore
	Status     models.Status
	// Lowest are the weakest evaluations, lowest score first.
	Lowest      []models.TriggerEvaluation
	EvaluatedAt time.Time
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendReport sends the report summary. It gives up after maxRetries attempts
// or when ctx is done.
func (c *Client) SendReport(ctx context.Context, r Report) error {
	msg := tgbotapi.NewMessage(c.chatID, formatReport(r))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("send report %s: %w", r.AnalysisID, ctx.Err())
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

func formatReport(r Report) string {
	var b strings.Builder

	title := r.PageName
	if title == "" {
		title = r.AnalysisID
	}
	fmt.Fprintf(&b, "📊 *Page health: %s*\n", escapeMarkdownV2(title))
	if !r.EvaluatedAt.IsZero() {
		fmt.Fprintf(&b, "📅 %s", escapeMarkdownV2(r.EvaluatedAt.UTC().Format("2006-01-02 15:04")))
		if r.Industry != "" {
			fmt.Fprintf(&b, " · %s", escapeMarkdownV2(r.Industry))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s Overall: *%d/100*", statusEmoji(r.Status), r.Score.Rounded())
	if r.Status != "" {
		fmt.Fprintf(&b, " \\(%s\\)", escapeMarkdownV2(string(r.Status)))
	}
	b.WriteString("\n\n")

	for _, cs := range r.Score.Categories {
		fmt.Fprintf(&b, "• %s: %d %s\n",
			escapeMarkdownV2(string(cs.Category)), cs.Rounded(),
			escapeMarkdownV2(fmt.Sprintf("(%d triggers)", cs.TriggerCount)))
	}

	if len(r.Lowest) > 0 {
		b.WriteString("\n🔧 *Needs attention*\n")
		for i, ev := range r.Lowest {
			name := ev.Name
			if name == "" {
				name = ev.ID
			}
			fmt.Fprintf(&b, "%d\\. %s: *%d*\n", i+1, escapeMarkdownV2(name), ev.Score)
			if ev.Recommendation != "" {
				fmt.Fprintf(&b, "   %s\n", escapeMarkdownV2(ev.Recommendation))
			}
		}
	}

	return b.String()
}

func statusEmoji(s models.Status) string {
	switch s {
	case models.StatusExcellent:
		return "🟢"
	case models.StatusGood:
		return "🟡"
	case models.StatusNeedsImprovement:
		return "🟠"
	case models.StatusCritical:
		return "🔴"
	default:
		return "⚪"
	}
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
