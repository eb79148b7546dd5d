package dialog

import (
	"fmt"
	"strings"

	"github.com/m3rciful/tagbot/core/telegram/format"
	"github.com/m3rciful/tagbot/internal/tags"
)

// FailureMessage is the generic reply sent when a request could not be served.
const FailureMessage = "Что-то пошло не так, попробуйте ещё раз позже"

const (
	msgAskTag        = "Введите тег"
	msgAskText       = "Введите текст"
	msgTagAdded      = "Тег успешно добавлен в базу данных"
	msgAskRemoveTag  = "Введите тег, который нужно удалить"
	msgAskEditTag    = "Введите тег, который нужно отредактировать"
	msgTagNotFound   = "Тег не найден, попробуйте другой"
	msgWrongAnswer   = "Неверный ответ, попробуйте ещё раз"
	msgTagRemoved    = "Тег успешно удалён"
	msgTagUpdated    = "Текст тега успешно обновлён"
	msgFailure       = FailureMessage
	msgNameRulesHead = "Тег не соответствует требованиям, попробуйте другой\nТребования:"
	msgTextRulesHead = "Текст не соответствует требованиям, попробуйте другой\nТребования:"
)

var ruleText = map[tags.Rule]string{
	tags.RuleNameEmpty:      "Тег не должен быть пустым",
	tags.RuleNameWhitespace: "Тег не должен содержать пробелы",
	tags.RuleNameTooLong:    fmt.Sprintf("Тег не должен быть длиннее %d символов", tags.MaxNameLen),
	tags.RuleTextEmpty:      "Текст не должен быть пустым",
	tags.RuleTextTooLong:    fmt.Sprintf("Текст не должен быть длиннее %d символов", tags.MaxTextLen),
}

func rulesMessage(head string, verr *tags.ValidationError) string {
	var b strings.Builder
	b.WriteString(head)
	for i, r := range verr.Rules {
		fmt.Fprintf(&b, "\n%d. %s", i+1, ruleText[r])
	}
	return b.String()
}

func addedMessage(name, text string) string {
	return "Тег: " + format.Code(name) + "\n\nТекст:\n" + format.Code(text)
}

func challengeMessage(a, b int) string {
	return fmt.Sprintf("Чтобы подтвердить удаление, решите пример:\n<code>%d + %d = ?</code>", a, b)
}

func currentTextMessage(text string) string {
	return "Текущий текст:\n" + format.Code(text) + "\n\nВведите новый текст"
}

// WelcomeMessage greets a user on /start and names the inline handle.
func WelcomeMessage(botUsername string) string {
	return "Привет! Я помогу тебе легко начинать диалог с начального сообщения.\n" +
		"Просто сохрани свои сообщения и начинай диалог с простого " +
		fmt.Sprintf("использования inline конструкции @%s start", botUsername)
}
