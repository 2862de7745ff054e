package bot

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/drive-assist/internal/assistant"
	"github.com/xaenox/drive-assist/internal/models"
)

const maxVoiceBytes = 20 << 20

type Bot struct {
	api        *tgbotapi.BotAPI
	svc        *assistant.Service
	httpClient *http.Client
	logger     *zap.Logger
}

func New(token string, svc *assistant.Service, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:        api,
		svc:        svc,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// Start polls for updates until ctx is canceled. Each message is handled
// on its own goroutine.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	session := sessionID(message.Chat.ID)

	if message.Voice != nil {
		b.handleVoice(ctx, message, session)
		return
	}

	text := message.Text
	if text == "" {
		text = message.Caption
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	resp := b.svc.Ask(ctx, models.AskRequest{Question: text, SessionID: session})
	b.sendAnswer(message.Chat.ID, message.MessageID, resp)
}

func (b *Bot) handleVoice(ctx context.Context, message *tgbotapi.Message, session string) {
	audio, err := b.downloadFile(ctx, message.Voice.FileID)
	if err != nil {
		b.logger.Error("Failed to download voice message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}

	mimeType := message.Voice.MimeType
	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	resp := b.svc.Voice(ctx, audio, mimeType, "", session)
	b.sendMessage(message.Chat.ID, "🎙 "+resp.Text)
	b.sendAnswer(message.Chat.ID, message.MessageID, resp.AskResponse)
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxVoiceBytes))
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "alarms":
		b.handleAlarms(ctx, message)
	case "pending":
		b.handlePending(ctx, message)
	case "ask":
		if q := message.CommandArguments(); q != "" {
			resp := b.svc.Ask(ctx, models.AskRequest{Question: q, SessionID: sessionID(message.Chat.ID)})
			b.sendAnswer(message.Chat.ID, message.MessageID, resp)
			return
		}
		b.sendMessage(message.Chat.ID, "사용법: /ask 질문")
	default:
		b.sendMessage(message.Chat.ID, "알 수 없는 명령입니다. /help 를 입력해 보세요.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `안녕하세요! 차량 도우미입니다 🚗
차에 관한 질문을 글이나 음성으로 보내 주세요.

"30분 뒤 알람"처럼 말하면 알람을 맞춰 드리고,
"엔진오일 추천해줘"처럼 말하면 쇼핑 링크를 보내 드립니다.
/help 로 명령어를 확인하세요.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `명령어:
/start - 시작하기
/help - 도움말
/ask 질문 - 질문하기
/alarms - 예약된 알람 보기
/pending - 지금 울릴 알람 확인

텍스트와 음성 메시지 모두 보낼 수 있습니다.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleAlarms(ctx context.Context, message *tgbotapi.Message) {
	reminders, err := b.svc.Reminders(ctx, sessionID(message.Chat.ID))
	if err != nil {
		b.logger.Error("Failed to list alarms",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "알람 목록을 불러오지 못했습니다.")
		return
	}

	b.sendMessage(message.Chat.ID, formatReminders(reminders))
}

func (b *Bot) handlePending(ctx context.Context, message *tgbotapi.Message) {
	reminder, err := b.svc.PendingReminder(ctx, sessionID(message.Chat.ID))
	if err != nil {
		b.logger.Error("Failed to fetch pending alarm",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "알람을 확인하지 못했습니다.")
		return
	}
	if reminder == nil {
		b.sendMessage(message.Chat.ID, "지금 울릴 알람이 없습니다.")
		return
	}

	b.sendMessage(message.Chat.ID, "⏰ "+reminder.Message)
}

func (b *Bot) sendAnswer(chatID int64, replyToID int, resp models.AskResponse) {
	msg := tgbotapi.NewMessage(chatID, resp.Answer)
	msg.ReplyToMessageID = replyToID
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send answer",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}

	if resp.Audio == nil {
		return
	}
	audio, err := base64.StdEncoding.DecodeString(*resp.Audio)
	if err != nil {
		b.logger.Error("Failed to decode answer audio", zap.Error(err))
		return
	}

	voice := tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{Name: "answer.mp3", Bytes: audio})
	if _, err := b.api.Send(voice); err != nil {
		b.logger.Error("Failed to send answer audio",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.sendMessage(chatID, "⚠️ "+text)
}

func sessionID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

func formatReminders(reminders []*models.Reminder) string {
	if len(reminders) == 0 {
		return "예약된 알람이 없습니다."
	}

	var b strings.Builder
	b.WriteString("예약된 알람:\n")
	for _, r := range reminders {
		fmt.Fprintf(&b, "• %s %s\n", r.ScheduledAt.Format("01/02 15:04"), r.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
