package chat

import "strings"

// FallbackReply is returned whenever the widget cannot do better, including
// on internal errors, so a visitor is never left without a human channel.
const FallbackReply = "Thanks for reaching out! For anything I can't answer here, call our intake line at (555) 014-2400 or email intake@havenpath.org and a team member will get back to you within one business day."

// defaultReply handles messages no rule matched.
const defaultReply = "I want to make sure you get the right answer. Could you tell me a bit more about what you're looking for? I can help with housing options, applications, and scheduling a tour."

type rule struct {
	keywords []string
	reply    string
}

// Responder maps visitor messages onto canned replies by keyword. Rules are
// checked in order and the first match wins, so the more urgent and more
// specific rules sit higher in the table.
type Responder struct {
	rules []rule
}

func NewResponder() *Responder {
	return &Responder{rules: []rule{
		{
			keywords: []string{"emergency", "tonight", "right now", "nowhere to"},
			reply:    "If you need somewhere to stay tonight, please call our intake line right away at (555) 014-2400 and press 1. That line is staffed around the clock and they can place you in emergency shelter today.",
		},
		{
			keywords: []string{"schedule", "tour", "appointment", "visit"},
			reply:    "We'd love to show you around! Tours run every weekday between 10am and 4pm. What day works best for you? You can also call (555) 014-2400 to book directly.",
		},
		{
			keywords: []string{"apply", "application", "qualify", "eligib"},
			reply:    "Applying is simple: a short intake form, one conversation with our team, and no application fees. Most people hear back within two business days. Want me to point you to the form?",
		},
		{
			keywords: []string{"veteran", "military", "served"},
			reply:    "Thank you for your service. We hold housing placements specifically for veterans and can help with HUD-VASH and SSVF benefits. Would you like to schedule a time to talk with our veteran liaison?",
		},
		{
			keywords: []string{"recovery", "sober", "clean"},
			reply:    "Our recovery residences are substance-free homes with peer support built in, and rent is scaled to income. Would you like to visit one before deciding anything?",
		},
		{
			keywords: []string{"reentry", "incarcer", "parole", "probation", "record"},
			reply:    "A record doesn't disqualify you here. We place people rebuilding after incarceration every week, and our landlord partners already know who we refer. Want to start an application?",
		},
		{
			keywords: []string{"housing", "apartment", "room", "rent", "homeless"},
			reply:    "We offer shared homes, single units, and supportive housing, all with income-scaled rent and no application fees. Tell me a little about your situation and I can point you at the right program.",
		},
		{
			keywords: []string{"cost", "price", "afford", "deposit", "fee"},
			reply:    "Rent in every HavenPath program is scaled to your income, there are no application fees, and nobody is turned away for lacking a deposit. We can walk through the numbers on a quick call.",
		},
		{
			keywords: []string{"hours", "open", "phone", "contact", "address"},
			reply:    "Our office is open Monday through Friday, 9am to 5pm, at 214 Harbor Street. Phone: (555) 014-2400. Email: intake@havenpath.org.",
		},
		{
			keywords: []string{"hello", "hey", "good morning", "good afternoon"},
			reply:    "Hi there! I can help with housing options, applications, and scheduling a tour. What brings you in today?",
		},
		{
			keywords: []string{"thank"},
			reply:    "You're very welcome! Is there anything else I can help you with?",
		},
	}}
}

// Reply returns the canned response for a message, or the generic prompt
// when nothing matches.
func (r *Responder) Reply(text string) string {
	lower := strings.ToLower(text)
	for _, rl := range r.rules {
		for _, kw := range rl.keywords {
			if strings.Contains(lower, kw) {
				return rl.reply
			}
		}
	}
	return defaultReply
}
