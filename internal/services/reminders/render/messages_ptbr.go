package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "notification.generic.title", "Murmur")
	message.SetString(lang, "notification.generic.body", "Você tem uma nova notificação.")
	message.SetString(lang, "notification.reminder.title", "Lembrete")
	message.SetString(lang, "notification.reminder.body", "%s")
	message.SetString(lang, "notification.reminder.body_generic", "Um lembrete de um dos seus memos está na hora.")
	message.SetString(lang, "notification.followup.title", "Retomar")
	message.SetString(lang, "notification.followup.body", "Volte para: %s")
	message.SetString(lang, "notification.followup.body_generic", "Um dos seus memos está aguardando retomada.")
	message.SetString(lang, "notification.insight.title", "Insight")
	message.SetString(lang, "notification.insight.body", "%s")
	message.SetString(lang, "notification.insight.body_generic", "Um novo insight está pronto para você.")
	message.SetString(lang, "notification.assignment.title", "Nova atribuição")
	message.SetString(lang, "notification.assignment.body", "Você recebeu: %s")
	message.SetString(lang, "notification.assignment.body_generic", "Você tem uma nova atribuição.")
	message.SetString(lang, "notification.group_invite.title", "Convite de grupo")
	message.SetString(lang, "notification.group_invite.body", "Você foi convidado para um grupo de memos compartilhados.")
}
