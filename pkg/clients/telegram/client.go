package telegram

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/exovet/supportbot/internal/config"
	"github.com/exovet/supportbot/internal/domain/models"
)

// Client exposes the Telegram Bot API operations used by the application.
type Client interface {
	SendMessage(ctx context.Context, req SendMessageRequest) error
	SendPhoto(ctx context.Context, req SendPhotoRequest) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a Telegram Bot API client using the provided configuration values.
func NewClient(cfg config.TelegramConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/bot%s", base, cfg.BotToken)).
		SetTimeout(15 * time.Second)

	return &APIClient{httpClient: restyClient}
}

// SendMessageRequest represents an outbound text message, optionally
// carrying an inline keyboard.
type SendMessageRequest struct {
	ChatID      int64
	Text        string
	ReplyMarkup *models.InlineKeyboardMarkup
}

// SendPhotoRequest represents an outbound photo upload with caption.
type SendPhotoRequest struct {
	ChatID   int64
	Caption  string
	Photo    []byte
	Filename string
}

// apiResponse is the Bot API envelope common to every method.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage posts a text message to a chat.
func (c *APIClient) SendMessage(ctx context.Context, req SendMessageRequest) error {
	payload := map[string]any{
		"chat_id": req.ChatID,
		"text":    req.Text,
	}
	if req.ReplyMarkup != nil {
		payload["reply_markup"] = req.ReplyMarkup
	}

	result := new(apiResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(result).
		SetError(result).
		Post("/sendMessage")
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return checkResponse(resp, result)
}

// SendPhoto uploads an in-memory image to a chat via multipart form data.
func (c *APIClient) SendPhoto(ctx context.Context, req SendPhotoRequest) error {
	filename := req.Filename
	if filename == "" {
		filename = "chart.png"
	}

	result := new(apiResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("photo", filename, bytes.NewReader(req.Photo)).
		SetFormData(map[string]string{
			"chat_id": strconv.FormatInt(req.ChatID, 10),
			"caption": req.Caption,
		}).
		SetResult(result).
		SetError(result).
		Post("/sendPhoto")
	if err != nil {
		return fmt.Errorf("send telegram photo: %w", err)
	}

	return checkResponse(resp, result)
}

// AnswerCallbackQuery acknowledges an inline-keyboard button press so
// the client stops showing a progress indicator.
func (c *APIClient) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
	result := new(apiResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"callback_query_id": callbackQueryID}).
		SetResult(result).
		SetError(result).
		Post("/answerCallbackQuery")
	if err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	return checkResponse(resp, result)
}

func checkResponse(resp *resty.Response, result *apiResponse) error {
	if resp.StatusCode() >= http.StatusBadRequest || (result != nil && !result.OK) {
		code := resp.StatusCode()
		message := ""
		if result != nil {
			message = result.Description
			if result.ErrorCode != 0 {
				code = result.ErrorCode
			}
		}
		return fmt.Errorf("telegram api error: code=%d, message=%s", code, message)
	}
	return nil
}
