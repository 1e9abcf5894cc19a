// Inline keyboard and callback encoding for the guess game panel.
package guess

import (
	"strings"

	tele "gopkg.in/telebot.v3"
)

const (
	// CallbackPrefix is the prefix for all guess callback data.
	CallbackPrefix = "guess_"
	// ActionJoin is the join-button action.
	ActionJoin = "join"
)

// EncodeCallback encodes an action into callback data.
func EncodeCallback(action string) string {
	return CallbackPrefix + action
}

// DecodeCallback decodes callback data into an action. Empty when the data
// is not ours.
func DecodeCallback(data string) string {
	// Telebot may add a \f prefix to callback data.
	data = strings.TrimPrefix(data, "\f")
	if !strings.HasPrefix(data, CallbackPrefix) {
		return ""
	}
	return strings.TrimPrefix(data, CallbackPrefix)
}

// JoinKeyboard builds the single-button panel keyboard.
func JoinKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = [][]tele.InlineButton{
		{
			{
				Text: "🎟 Join",
				Data: EncodeCallback(ActionJoin),
			},
		},
	}
	return markup
}
