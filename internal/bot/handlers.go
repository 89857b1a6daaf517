package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/katasensei/internal/scheduler"
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	if !b.allowed(message.Chat.ID) {
		b.logger.WithField("chat_id", message.Chat.ID).Warn("Ignoring command from unknown chat")
		return nil
	}

	var text string
	switch message.Command() {
	case "start", "help":
		text = helpText
	case "due":
		text = b.dueText(ctx)
	case "tasks":
		text = b.tasksText(ctx)
	case "stats":
		text = b.statsText(ctx)
	default:
		text = "Perintah tidak dikenal. Ketik /help untuk daftar perintah."
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// HandleCallback answers the inline menu buttons
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	if !b.allowed(chatID) {
		return nil
	}

	var text string
	switch callback.Data {
	case "due":
		text = b.dueText(ctx)
	case "tasks":
		text = b.tasksText(ctx)
	case "stats":
		text = b.statsText(ctx)
	default:
		return fmt.Errorf("unknown callback %q", callback.Data)
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// allowed restricts the bot to its configured chat, if any
func (b *Bot) allowed(chatID int64) bool {
	return b.chatID == 0 || b.chatID == chatID
}

const helpText = "👋 Selamat datang di KataSensei!\n\n" +
	"/due - jumlah kartu yang perlu direview\n" +
	"/tasks - tugas review yang menunggu\n" +
	"/stats - streak, level dan target harian\n" +
	"/help - tampilkan bantuan ini"

func (b *Bot) dueText(ctx context.Context) string {
	n := b.study.DueCount(ctx)
	if n == 0 {
		return "✅ Tidak ada kartu yang jatuh tempo. Kerja bagus!"
	}
	return fmt.Sprintf("📚 %d kartu siap direview.", n)
}

func (b *Bot) tasksText(ctx context.Context) string {
	n := b.study.PendingCount(ctx)
	if n == 0 {
		return "✅ Tidak ada tugas review yang menunggu."
	}
	return fmt.Sprintf("📝 %d tugas review menunggu.", n)
}

func (b *Bot) statsText(ctx context.Context) string {
	stats := b.study.Stats(ctx)
	progress := b.study.TodayProgress(ctx, b.clock())

	var text strings.Builder
	text.WriteString("📊 Statistik\n\n")
	text.WriteString(fmt.Sprintf("Level %d (%d/%d XP)\n", stats.Level, stats.CurrentXP, stats.NextLevelXP))
	text.WriteString(fmt.Sprintf("🔥 Streak %d hari (terbaik %d)\n", stats.Streak, stats.MaxStreak))
	text.WriteString(fmt.Sprintf("Hari ini: %d/%d kartu (%d%%)\n", progress.Reviewed, progress.Target, progress.Percent))
	text.WriteString(fmt.Sprintf("Total direview: %d", stats.TotalCardsReviewed))
	return text.String()
}

// FormatReminder renders a reminder message
func FormatReminder(r scheduler.Reminder) string {
	var text strings.Builder
	text.WriteString("🔔 Waktunya review!")
	if r.DueCards > 0 {
		text.WriteString(fmt.Sprintf("\n📚 %d kartu jatuh tempo", r.DueCards))
	}
	if r.DueTasks > 0 {
		text.WriteString(fmt.Sprintf("\n📝 %d tugas review menunggu", r.DueTasks))
	}
	return text.String()
}
