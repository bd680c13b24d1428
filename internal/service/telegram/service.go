package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/exovet/supportbot/internal/config"
	"github.com/exovet/supportbot/internal/domain/models"
	"github.com/exovet/supportbot/internal/service/reporting"
	client "github.com/exovet/supportbot/pkg/clients/telegram"
)

const (
	greetingText       = "Hi! Use /exotic to get exotic-animal consultation analytics 🦎"
	periodPromptText   = "Pick a period for the analytics:"
	startDatePrompt    = "Enter the start date (YYYY-MM-DD):"
	endDatePrompt      = "Enter the end date (YYYY-MM-DD):"
	invalidDateText    = "Invalid date format. Please use YYYY-MM-DD."
	noDataText         = "No data for the selected period."
	unknownChoiceText  = "Unknown selection. Use /exotic to open the menu again."
	accessDeniedText   = "Access denied."
	genericFailureText = "Something went wrong. Please try again later."
	fallbackHintText   = "Use /exotic for analytics or /start for help."
	notImplementedText = "This section is not implemented yet."
)

// ChartRenderer produces PNG chart images from category breakdowns.
type ChartRenderer interface {
	Bar(breakdown models.CategoryBreakdown, title string) ([]byte, error)
	Pie(breakdown models.CategoryBreakdown, title string) ([]byte, error)
	HorizontalBar(breakdown models.CategoryBreakdown, title string) ([]byte, error)
}

// MessagingService describes the operations the HTTP layer and the
// scheduler can perform.
type MessagingService interface {
	HandleUpdate(ctx context.Context, update models.Update) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// BotService routes Telegram updates through the conversation state
// machine and replies with analytics reports.
type BotService struct {
	cfg       config.TelegramConfig
	client    client.Client
	reporting *reporting.Service
	charts    ChartRenderer
	sessions  *SessionManager
	logger    *zap.Logger
}

// NewBotService wires a new service instance.
func NewBotService(cfg config.TelegramConfig, apiClient client.Client, reportingSvc *reporting.Service, renderer ChartRenderer, sessions *SessionManager, logger *zap.Logger) *BotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotService{
		cfg:       cfg,
		client:    apiClient,
		reporting: reportingSvc,
		charts:    renderer,
		sessions:  sessions,
		logger:    logger,
	}
}

// Sessions exposes the session manager for the expiry sweep.
func (s *BotService) Sessions() *SessionManager {
	return s.sessions
}

// HandleUpdate processes one inbound Telegram update to completion.
// All failures are handled at this boundary: they are logged and
// answered with a generic message, never propagated as a crash.
func (s *BotService) HandleUpdate(ctx context.Context, update models.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return s.handleCallback(ctx, *update.CallbackQuery)
	case update.Message != nil && strings.TrimSpace(update.Message.Text) != "":
		return s.handleMessage(ctx, *update.Message)
	default:
		return nil
	}
}

// SendOutbound lets internal operators push notifications via HTTP.
func (s *BotService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.client.SendMessage(ctxWithTimeout, client.SendMessageRequest{
		ChatID: req.ChatID,
		Text:   req.Message,
	})
}

func (s *BotService) handleMessage(ctx context.Context, msg models.Message) error {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch text {
	case "/start":
		return s.reply(ctx, chatID, greetingText)
	case "/exotic":
		return s.client.SendMessage(ctx, client.SendMessageRequest{
			ChatID:      chatID,
			Text:        periodPromptText,
			ReplyMarkup: periodKeyboard(),
		})
	case "/admin":
		return s.handleAdminCommand(ctx, msg)
	}

	session := s.sessions.Get(chatID)
	switch session.Step {
	case StepAwaitingStartDate:
		return s.handleStartDateInput(ctx, chatID, text)
	case StepAwaitingEndDate:
		return s.handleEndDateInput(ctx, chatID, session, text)
	default:
		return s.reply(ctx, chatID, fallbackHintText)
	}
}

func (s *BotService) handleCallback(ctx context.Context, cb models.CallbackQuery) error {
	chatID := cb.From.ID
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}

	defer func() {
		if err := s.client.AnswerCallbackQuery(ctx, cb.ID); err != nil {
			s.logger.Warn("failed to answer callback query", zap.Error(err), zap.String("callback_id", cb.ID))
		}
	}()

	if models.IsAdminToken(cb.Data) {
		return s.handleAdminCallback(ctx, cb, chatID)
	}

	filter := models.ParsePeriodFilter(cb.Data)
	s.logger.Info("period selected",
		zap.Int64("chat_id", chatID),
		zap.String("filter", string(filter)))

	switch filter {
	case models.PeriodUnknown:
		return s.reply(ctx, chatID, unknownChoiceText)
	case models.PeriodCustom:
		s.sessions.Update(chatID, Session{Step: StepAwaitingStartDate})
		return s.reply(ctx, chatID, startDatePrompt)
	default:
		window, err := s.reporting.FixedWindow(filter)
		if err != nil {
			return s.reply(ctx, chatID, unknownChoiceText)
		}
		title := fmt.Sprintf("Consultations over the last %d days", filter.Days())
		return s.sendWindowReport(ctx, chatID, window, title, s.charts.Bar)
	}
}

func (s *BotService) handleStartDateInput(ctx context.Context, chatID int64, text string) error {
	if _, err := reporting.ParseDate(text); err != nil {
		return s.reply(ctx, chatID, invalidDateText)
	}

	s.sessions.Update(chatID, Session{Step: StepAwaitingEndDate, StartDate: text})
	return s.reply(ctx, chatID, endDatePrompt)
}

func (s *BotService) handleEndDateInput(ctx context.Context, chatID int64, session Session, text string) error {
	if _, err := reporting.ParseDate(text); err != nil {
		return s.reply(ctx, chatID, invalidDateText)
	}

	window, err := s.reporting.CustomWindow(session.StartDate, text)
	if err != nil {
		// The start date was validated when stored, so only a corrupted
		// session reaches this branch. Reset and start over.
		s.sessions.Clear(chatID)
		return s.reply(ctx, chatID, invalidDateText)
	}

	s.sessions.Clear(chatID)
	title := fmt.Sprintf("Consultations %s", reporting.FormatWindow(window))
	return s.sendWindowReport(ctx, chatID, window, title, s.charts.HorizontalBar)
}

// sendWindowReport runs the aggregation for a window and replies with
// the per-category lines plus an optional chart. A render failure only
// drops the image; the textual summary is always delivered.
func (s *BotService) sendWindowReport(ctx context.Context, chatID int64, window models.ReportWindow, title string, render func(models.CategoryBreakdown, string) ([]byte, error)) error {
	breakdown, avg, err := s.reporting.WindowReport(ctx, window)
	if err != nil {
		return s.failConversation(ctx, chatID, err)
	}

	if breakdown.Empty() {
		return s.reply(ctx, chatID, noDataText)
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	for _, tc := range breakdown {
		fmt.Fprintf(&b, "🐾 %s: %d\n", tc.AnimalType, tc.Count)
	}
	fmt.Fprintf(&b, "\nAverage duration: %.1f min", avg)

	if err := s.reply(ctx, chatID, b.String()); err != nil {
		return err
	}

	image, err := render(breakdown, title)
	if err != nil {
		s.logger.Warn("chart rendering failed, sending text only",
			zap.Error(err), zap.Int64("chat_id", chatID))
		return nil
	}

	return s.client.SendPhoto(ctx, client.SendPhotoRequest{
		ChatID:   chatID,
		Caption:  title,
		Photo:    image,
		Filename: "chart.png",
	})
}

func (s *BotService) handleAdminCommand(ctx context.Context, msg models.Message) error {
	chatID := msg.Chat.ID
	if msg.From == nil || msg.From.ID != s.cfg.AdminID {
		return s.reply(ctx, chatID, accessDeniedText)
	}

	return s.client.SendMessage(ctx, client.SendMessageRequest{
		ChatID:      chatID,
		Text:        "Admin menu:",
		ReplyMarkup: adminKeyboard(),
	})
}

func (s *BotService) handleAdminCallback(ctx context.Context, cb models.CallbackQuery, chatID int64) error {
	if cb.From.ID != s.cfg.AdminID {
		return s.reply(ctx, chatID, accessDeniedText)
	}

	switch models.ParseAdminAction(cb.Data) {
	case models.AdminStats:
		return s.sendAdminStats(ctx, chatID)
	case models.AdminUsers, models.AdminExport, models.AdminSettings:
		return s.reply(ctx, chatID, notImplementedText)
	default:
		return s.reply(ctx, chatID, unknownChoiceText)
	}
}

func (s *BotService) sendAdminStats(ctx context.Context, chatID int64) error {
	digest, err := s.reporting.SummaryText(ctx)
	if err != nil {
		return s.failConversation(ctx, chatID, err)
	}

	if err := s.reply(ctx, chatID, digest); err != nil {
		return err
	}

	breakdown, err := s.reporting.AllTimeBreakdown(ctx)
	if err != nil {
		return s.failConversation(ctx, chatID, err)
	}
	if breakdown.Empty() {
		return nil
	}

	image, err := s.charts.Pie(breakdown, "Consultations by animal type")
	if err != nil {
		s.logger.Warn("admin stats chart failed, digest already sent", zap.Error(err))
		return nil
	}

	return s.client.SendPhoto(ctx, client.SendPhotoRequest{
		ChatID:   chatID,
		Caption:  "Consultations by animal type",
		Photo:    image,
		Filename: "breakdown.png",
	})
}

// failConversation reports a store-level failure to the user and
// resets their dialogue so the next message starts clean.
func (s *BotService) failConversation(ctx context.Context, chatID int64, cause error) error {
	s.logger.Error("report generation failed", zap.Error(cause), zap.Int64("chat_id", chatID))
	s.sessions.Clear(chatID)
	return s.reply(ctx, chatID, genericFailureText)
}

func (s *BotService) reply(ctx context.Context, chatID int64, text string) error {
	return s.client.SendMessage(ctx, client.SendMessageRequest{ChatID: chatID, Text: text})
}

func periodKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "7 days", CallbackData: models.PeriodWeek.CallbackData()},
				{Text: "30 days", CallbackData: models.PeriodMonth.CallbackData()},
			},
			{
				{Text: "Year", CallbackData: models.PeriodYear.CallbackData()},
				{Text: "Custom period", CallbackData: models.PeriodCustom.CallbackData()},
			},
		},
	}
}

func adminKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Statistics", CallbackData: string(models.AdminStats)},
				{Text: "Users", CallbackData: string(models.AdminUsers)},
			},
			{
				{Text: "Export", CallbackData: string(models.AdminExport)},
				{Text: "Settings", CallbackData: string(models.AdminSettings)},
			},
		},
	}
}
