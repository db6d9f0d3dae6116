package dialog

const (
	textHelp = "Привет! Я бот уведомлений.\n\n" +
		"/subscribe — привязать nickname к этому чату\n" +
		"/unsubscribe — отвязать nickname от этого чата\n" +
		"/whoami — показать, что привязано к этому чату\n" +
		"/cancel — отменить текущее действие\n\n" +
		"Для администраторов:\n" +
		"/list_users — список пользователей\n" +
		"/setrole — изменить роль пользователя\n" +
		"/unsubscribe_user — удалить пользователя по nickname"
	textCommandsOnly    = "Я понимаю только команды. Отправь /help, чтобы увидеть список."
	textUnknownCommand  = "Команда не поддерживается. Загляни в /help."
	textInternalError   = "⚠️ Что-то пошло не так. Попробуй ещё раз чуть позже."
	textAdminOnly       = "Эта команда доступна только администраторам."
	textCancelled       = "Ок, действие отменили."
	textNothingToCancel = "Сейчас нечего отменять."

	textAskNickname      = "Отправь nickname, который хочешь привязать к этому чату.\nДля отмены — /cancel."
	textEmptyNickname    = "nickname не должен быть пустым. Попробуй ещё раз или отправь /cancel."
	textSubscribed       = "Готово! Nickname <b>%s</b> привязан к этому чату."
	textChatAlreadyBound = "У тебя уже есть nickname '%s'.\nОдин чат может иметь только один nickname.\nЕсли хочешь его сменить — сначала сделай /unsubscribe."
	textNicknameTaken    = "Никнейм '%s' уже используется другим пользователем. Выбери другой или отправь /cancel."

	textUnsubscribed   = "Ты отписался от уведомлений. Nickname '%s' больше не привязан к этому чату."
	textNoSubscription = "Активных подписок для этого чата не найдено."

	textWhoamiChat      = "Твой chat_id: %d"
	textWhoamiUsername  = "username: %s"
	textWhoamiNicknames = "Привязанные nickname:"
	textWhoamiLine      = "- %s (роль: %s)"
	textWhoamiNone      = "Привязанных nickname нет. Используй /subscribe."

	textNoUsers     = "В базе ещё нет пользователей."
	textUsersHeader = "Пользователи:"
	textUserLine    = "%s: chat_id=%d, username=%s, role=%s"

	textChooseRole        = "Выбери роль, которую нужно назначить:"
	textUseButtons        = "Выбери роль кнопкой под сообщением или отправь /cancel."
	textRoleChosen        = "Выбрана роль <b>%s</b>. Теперь отправь nickname пользователя.\nДля отмены — /cancel."
	textAskTargetNickname = "Отправь nickname пользователя, которому нужно назначить роль <b>%s</b>, или /cancel."
	textBadRoleChoice     = "Неизвестная роль. Начни заново: /setrole."
	textTargetNotFound    = "Пользователь с nickname '%s' не найден. Начни заново: /setrole."
	textSameRole          = "У пользователя '%s' уже роль %s — ничего менять не нужно."
	textRoleChanged       = "Роль пользователя '%s' изменена: %s → %s."
	textRoleNotChanged    = "Не удалось изменить роль пользователя '%s'. Начни заново: /setrole."

	textAskRemoveNickname = "Отправь nickname пользователя, которого нужно удалить.\nДля отмены — /cancel."
	textRemoveNotFound    = "Пользователь с nickname '%s' не найден. Проверь написание или отправь /cancel."
	textUserRemoved       = "Пользователь с nickname='%s' удалён из базы."

	noValue = "—"
)
