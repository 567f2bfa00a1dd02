package telegram

import (
	"github.com/m3rciful/wallbot/internal/bot"

	tele "gopkg.in/telebot.v4"
)

// replyButtons builds a reply keyboard from rows of labels.
func replyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

func mainMenu() *tele.ReplyMarkup {
	return replyButtons(
		[]string{bot.LabelGallery},
		[]string{bot.LabelVIP, bot.LabelInfo},
		[]string{bot.LabelAdmin},
	)
}

func adminMenu() *tele.ReplyMarkup {
	return replyButtons(
		[]string{bot.LabelUpload},
		[]string{bot.LabelExit},
	)
}

// visibilityChoice offers the two publish targets for an uploaded photo.
// The file handle rides in the callback data.
func visibilityChoice(fileID string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	all := markup.Data("👥 Everyone", bot.PayloadPublishAll, fileID)
	vip := markup.Data("💎 VIP only", bot.PayloadPublishVIP, fileID)
	markup.Inline(markup.Row(all), markup.Row(vip))
	return markup
}

func markupFor(kb bot.Keyboard) *tele.ReplyMarkup {
	switch kb {
	case bot.KeyboardMain:
		return mainMenu()
	case bot.KeyboardAdmin:
		return adminMenu()
	default:
		return nil
	}
}
