package telegram

import (
	"strings"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/session"
)

const (
	choicePrefix  = "q:"
	lettersPerRow = 5
)

// CallbackData encodes a choice as "q:<session>:<question>:<option>". It stays
// well under Telegram's 64 byte limit.
func CallbackData(sessionID string, c session.Choice) string {
	return choicePrefix + sessionID + ":" + c.Token()
}

// ParseCallbackData splits callback data into a session ref and choice token.
func ParseCallbackData(data string) (sessionRef, token string, ok bool) {
	rest, found := strings.CutPrefix(data, choicePrefix)
	if !found {
		return "", "", false
	}
	sessionRef, token, ok = strings.Cut(rest, ":")
	if !ok || sessionRef == "" || token == "" {
		return "", "", false
	}
	return sessionRef, token, true
}

// AnswerKeyboard lays out one button per option: a row each for text
// options, or rows of letters when the options are images.
func AnswerKeyboard(v session.QuestionView) *InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	if v.LetterButtons {
		var row []InlineKeyboardButton
		for _, opt := range v.Options {
			row = append(row, InlineKeyboardButton{
				Text:         opt.Label,
				CallbackData: CallbackData(v.SessionID, opt.Choice),
			})
			if len(row) == lettersPerRow {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
		return &InlineKeyboardMarkup{InlineKeyboard: rows}
	}

	for _, opt := range v.Options {
		rows = append(rows, []InlineKeyboardButton{
			{Text: opt.Label, CallbackData: CallbackData(v.SessionID, opt.Choice)},
		})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// EmptyKeyboard removes buttons when passed as reply markup on an edit.
func EmptyKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}}
}
