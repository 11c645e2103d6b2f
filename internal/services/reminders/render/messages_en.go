package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "notification.generic.title", defaultGenericTitle)
	message.SetString(lang, "notification.generic.body", defaultGenericBody)
	message.SetString(lang, "notification.reminder.title", "Reminder")
	message.SetString(lang, "notification.reminder.body", "%s")
	message.SetString(lang, "notification.reminder.body_generic", "A reminder from one of your memos is due.")
	message.SetString(lang, "notification.followup.title", "Follow up")
	message.SetString(lang, "notification.followup.body", "Circle back to: %s")
	message.SetString(lang, "notification.followup.body_generic", "One of your memos is waiting for a follow-up.")
	message.SetString(lang, "notification.insight.title", "Insight")
	message.SetString(lang, "notification.insight.body", "%s")
	message.SetString(lang, "notification.insight.body_generic", "A new insight is ready for you.")
	message.SetString(lang, "notification.assignment.title", "New assignment")
	message.SetString(lang, "notification.assignment.body", "You were assigned: %s")
	message.SetString(lang, "notification.assignment.body_generic", "You have a new assignment.")
	message.SetString(lang, "notification.group_invite.title", "Group invitation")
	message.SetString(lang, "notification.group_invite.body", "You were invited to a shared memo group.")
}
