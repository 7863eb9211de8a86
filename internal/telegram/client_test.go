package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

type fakeSender struct {
	failures int
	calls    int
	last     tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.calls++
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.last = msg
	}
	if f.calls <= f.failures {
		return tgbotapi.Message{}, errors.New("too many requests")
	}
	return tgbotapi.Message{MessageID: f.calls}, nil
}

func testClient(t *testing.T, s sender, retries int) *Client {
	t.Helper()
	c, err := newClient(s, "-100123", retries, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func sampleReport() Report {
	return Report{
		AnalysisID: "an-1",
		PageName:   "Cukrárna U Lípy",
		Industry:   "gastro",
		Status:     models.StatusGood,
		Score: models.AggregateScore{
			Overall: 71.6,
			Categories: []models.CategoryScore{
				{Category: models.CategoryBasic, Score: 80, Weight: 0.25, TriggerCount: 3},
				{Category: models.CategoryPageSettings, Score: 62.5, Weight: 0.1, TriggerCount: 1},
			},
		},
		Lowest: []models.TriggerEvaluation{
			{ID: "TIMING_003", Name: "Posting recency", Score: 10, Recommendation: "Publish again (today!)."},
			{ID: "CONTENT_005", Score: 40},
		},
		EvaluatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"1.5%", "1\\.5%"},
		{"a_b*c", "a\\_b\\*c"},
		{"(x) [y] {z}", "\\(x\\) \\[y\\] \\{z\\}"},
		{"C:\\path", "C:\\\\path"},
		{"Cukrárna!", "Cukrárna\\!"},
	}

	for _, tt := range tests {
		if got := escapeMarkdownV2(tt.in); got != tt.want {
			t.Errorf("escapeMarkdownV2(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatReport(t *testing.T) {
	msg := formatReport(sampleReport())

	for _, want := range []string{
		"*Page health: Cukrárna U Lípy*",
		"2025\\-06\\-01 12:00 · gastro",
		"Overall: *72/100* \\(GOOD\\)",
		"• BASIC: 80 \\(3 triggers\\)",
		"• PAGE\\_SETTINGS: 63 \\(1 triggers\\)",
		"1\\. Posting recency: *10*",
		"Publish again \\(today\\!\\)\\.",
		"2\\. CONTENT\\_005: *40*",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatReport_NoLowest(t *testing.T) {
	r := sampleReport()
	r.Lowest = nil
	r.PageName = ""
	msg := formatReport(r)
	if strings.Contains(msg, "Needs attention") {
		t.Error("unexpected attention section")
	}
	if !strings.Contains(msg, "Page health: an\\-1") {
		t.Errorf("expected analysis id as title:\n%s", msg)
	}
}

func TestSendReport_RetriesThenSucceeds(t *testing.T) {
	s := &fakeSender{failures: 2}
	c := testClient(t, s, 3)

	if err := c.SendReport(context.Background(), sampleReport()); err != nil {
		t.Fatalf("SendReport failed: %v", err)
	}
	if s.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", s.calls)
	}
	if s.last.ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("unexpected parse mode %q", s.last.ParseMode)
	}
	if s.last.ChatID != -100123 {
		t.Errorf("unexpected chat id %d", s.last.ChatID)
	}
}

func TestSendReport_GivesUp(t *testing.T) {
	s := &fakeSender{failures: 10}
	c := testClient(t, s, 2)

	err := c.SendReport(context.Background(), sampleReport())
	if err == nil || !strings.Contains(err.Error(), "too many requests") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
	if s.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", s.calls)
	}
}

func TestSendReport_StopsOnCancel(t *testing.T) {
	s := &fakeSender{failures: 10}
	c, err := newClient(s, "1", 5, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.SendReport(ctx, sampleReport())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.calls != 1 {
		t.Errorf("expected a single attempt, got %d", s.calls)
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	if _, err := newClient(&fakeSender{}, "not-a-number", 3, time.Second); err == nil {
		t.Error("expected error for invalid chat id")
	}
}
