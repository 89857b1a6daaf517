package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/example/katasensei/internal/gamification"
	"github.com/example/katasensei/internal/scheduler"
	"github.com/example/katasensei/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Sender is the part of the Telegram API the bot sends through
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Study is what the bot reports on
type Study interface {
	DueCount(ctx context.Context) int
	PendingCount(ctx context.Context) int
	Stats(ctx context.Context) models.UserStats
	TodayProgress(ctx context.Context, now time.Time) gamification.Progress
}

// Bot delivers reminders to one chat and answers a few status commands
type Bot struct {
	api    Sender
	client *tgbotapi.BotAPI
	chatID int64
	study  Study
	logger logrus.FieldLogger
	clock  func() time.Time
}

// New authorizes against the Telegram API with token
func New(token string, chatID int64, study Study, logger logrus.FieldLogger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is not set")
	}
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	b := newBot(client, chatID, study, logger)
	b.client = client
	b.logger.WithField("account", client.Self.UserName).Info("Authorized on Telegram")
	return b, nil
}

func newBot(api Sender, chatID int64, study Study, logger logrus.FieldLogger) *Bot {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Bot{
		api:    api,
		chatID: chatID,
		study:  study,
		logger: logger,
		clock:  time.Now,
	}
}

// Run handles incoming updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("bot is not connected")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)
	defer b.client.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.logger.WithError(err).Warn("Error handling update")
	}
}

// SendReminder implements scheduler.Notifier
func (b *Bot) SendReminder(ctx context.Context, r scheduler.Reminder) error {
	if b.chatID == 0 {
		return fmt.Errorf("telegram chat id is not set")
	}
	msg := tgbotapi.NewMessage(b.chatID, FormatReminder(r))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	if err := b.sendMessage(msg); err != nil {
		return err
	}
	b.logger.WithField("chat_id", b.chatID).Debug("Reminder delivered")
	return nil
}

// MainMenuButtons are attached to reminders and /start
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📚 Kartu jatuh tempo", CallbackData: "due"}, {Text: "📝 Tugas", CallbackData: "tasks"}},
		{{Text: "📊 Statistik", CallbackData: "stats"}},
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// LogNotifier writes reminders to the log when no bot is configured
type LogNotifier struct {
	Logger logrus.FieldLogger
}

// SendReminder implements scheduler.Notifier
func (n LogNotifier) SendReminder(_ context.Context, r scheduler.Reminder) error {
	logger := n.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"due_cards": r.DueCards,
		"due_tasks": r.DueTasks,
	}).Info(FormatReminder(r))
	return nil
}
