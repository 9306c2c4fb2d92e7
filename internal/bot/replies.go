package bot

import "github.com/malyarq/happiness-bot/pkg/tgui"

// Keyboard button labels. Free text is matched against these
// case-insensitively, so they double as keyword shortcuts.
const (
	btnStart   = "Начать"
	btnSetTime = "Установить время"
	btnRandom  = "Случайная цитата"
	btnPropose = "Предложить цитату"
	btnCancel  = "Отмена"
)

const (
	replyWelcome = "Привет! Я - бот, который по расписанию будет присылать тебе цитаты, в основном мотивирующие.\n\n" +
		"Время для отправки по умолчанию - %s. Ты можешь настроить время отправки цитат с помощью кнопки снизу. " +
		"Также, ты всегда можешь получить случайную цитату или предложить свою.\n\n" +
		"/help - посмотреть список доступных команд."
	replyKnown = "Привет! Мы с тобой уже знакомы. Твоё текущее время для отправки цитат: %s.\n\n" +
		"Чтобы начать настройку заново напиши /reset."
	replyReset = "Я удалил все твои данные, теперь можем начать заново!\n\n" +
		"Для этого напиши /start или нажми кнопку ниже."
	replyUnregistered = "Мы ещё не знакомы. Напиши /start, чтобы подписаться на цитаты."

	replyAskTime     = "Пожалуйста, укажи время в формате ЧЧ:ММ."
	replyBadTime     = "Неправильный формат времени. Используй ЧЧ:ММ."
	replyTimeUpdated = "Время для получения цитат обновлено на %s."
	replyCancelled   = "Ввод отменен."

	replyAskQuote  = "Пожалуйста, введи цитату в формате: <цитата> - <автор> (дефис обязателен)"
	replyBadQuote  = "Неправильный формат. Пожалуйста, используй формат: <цитата> - <автор> (дефис обязателен)"
	replyProposed  = "Цитата отправлена на рассмотрение."
	replyNoQuotes  = "Цитаты отсутствуют."
	replyStoreFail = "Что-то пошло не так, попробуй ещё раз позже."

	replyHelp = "Доступные команды:\n" +
		"/settime - Установить время для получения цитат\n" +
		"/quote - Получить случайную цитату\n" +
		"/propose - Предложить свою цитату\n" +
		"/help - Показать это сообщение"
	replyHelpAdmin = replyHelp + "\n" +
		"/addquote <цитата> - <автор> - Добавить новую цитату (админ)\n" +
		"/listquotes - Просмотреть все цитаты (админ)\n" +
		"/deletequote <номер цитаты> - Удалить цитату (админ)\n" +
		"/disable - Отключить рассылку (админ)\n" +
		"/enable - Включить рассылку (админ)"
)

func mainKeyboard() any {
	return tgui.ReplyKeyboard(
		[]string{btnSetTime, btnRandom},
		[]string{btnPropose},
	)
}

func startKeyboard() any {
	return tgui.ReplyKeyboard([]string{btnStart})
}

func timeKeyboard() any {
	return tgui.ReplyKeyboard(
		[]string{"09:00", "18:00"},
		[]string{btnCancel},
	)
}

func cancelKeyboard() any {
	return tgui.ReplyKeyboard([]string{btnCancel})
}
