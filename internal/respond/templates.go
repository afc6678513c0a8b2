package respond

import "github.com/Dicklesworthstone/lifeline/internal/core"

// Template placeholders. {{helplines}} expands to one "- name: contact" line
// per helpline; {{emergency}} to the local emergency number.
const (
	placeholderHelplines = "{{helplines}}"
	placeholderEmergency = "{{emergency}}"
)

// templates are the safety-reviewed replies, one per tier. Edits here need
// the same review as pattern changes; bump TemplateVersion with them.
var templates = map[core.SeverityTier]string{
	core.TierCritical: `I'm really glad you told me, and I'm taking what you said seriously. You don't have to go through this alone, and you deserve support right now.

If you are in immediate danger, please call {{emergency}} now.

You can talk to someone trained to help, any time:
{{helplines}}

If you can, please reach out to one of them or to someone you trust while we keep talking.`,

	core.TierHigh: `It sounds like you're carrying a lot right now, and I'm glad you shared it. Feeling this way can be overwhelming, and you don't have to face it by yourself.

Talking to someone trained to help can make a real difference:
{{helplines}}

If you ever feel you might act on these feelings, please call {{emergency}}.`,

	core.TierMedium: `Thank you for sharing how you're feeling. That sounds really hard, and your feelings matter. Would it help to talk about what's been going on? Reaching out to someone you trust, or a counselor, can also help.`,

	core.TierLow: `It sounds like things have been tough lately. I'm here to listen if you'd like to talk more about it.`,
}

// fallbackTemplate is used for any tier without a template. It still carries
// the helplines so the conservative path never hides them.
const fallbackTemplate = `I'm here for you, and I want to make sure you have support. If you're struggling, you can reach someone any time:
{{helplines}}`

// TemplateVersion identifies the reviewed template set.
const TemplateVersion = "2025.1"
