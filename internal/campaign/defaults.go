package campaign

// defaultDefinitions is the built-in catalog, used whenever no campaigns
// file is configured. Content mirrors config/campaigns.yaml; edit both when
// changing copy.
func defaultDefinitions() []Definition {
	return []Definition{
		{
			Type: TypeVeteran,
			Steps: []Step{
				{
					DayOffset: 0, SendHour: 10, TemplateID: "veteran_welcome", Priority: PriorityHigh, ScoreBoost: 10,
					Template: Template{
						Subject: "Welcome {first_name} - housing support for veterans",
						HTML:    "<p>Hi {first_name},</p><p>Thank you for reaching out to HavenPath. We hold housing placements specifically for veterans, and our team includes people who have served themselves.</p><p>Reply to this email or call us at (555) 014-2400 and we will walk you through what is available this week.</p>",
						Text:    "Hi {first_name},\n\nThank you for reaching out to HavenPath. We hold housing placements specifically for veterans, and our team includes people who have served themselves.\n\nReply to this email or call us at (555) 014-2400 and we will walk you through what is available this week.",
					},
				},
				{
					DayOffset: 1, SendHour: 14, TemplateID: "veteran_benefits", Priority: PriorityMedium, ScoreBoost: 5,
					Template: Template{
						Subject: "{first_name}, your VA benefits can cover more than you think",
						HTML:    "<p>Hi {first_name},</p><p>Many of the veterans we house are surprised by what HUD-VASH and SSVF can cover. We handle the paperwork with you, not for you, so you always know where your application stands.</p><p>Want us to check your eligibility? It takes about ten minutes.</p>",
						Text:    "Hi {first_name},\n\nMany of the veterans we house are surprised by what HUD-VASH and SSVF can cover. We handle the paperwork with you, not for you, so you always know where your application stands.\n\nWant us to check your eligibility? It takes about ten minutes.",
					},
				},
				{
					DayOffset: 3, SendHour: 10, TemplateID: "veteran_housing_options", Priority: PriorityMedium, ScoreBoost: 5,
					Template: Template{
						Subject: "Three housing options open near you",
						HTML:    "<p>Hi {first_name},</p><p>We currently have openings in shared veteran housing, single units, and transitional placements. Each comes with a case manager who meets you weekly.</p><p>Would you like to schedule a tour? Most folks pick a time within a couple of days.</p>",
						Text:    "Hi {first_name},\n\nWe currently have openings in shared veteran housing, single units, and transitional placements. Each comes with a case manager who meets you weekly.\n\nWould you like to schedule a tour? Most folks pick a time within a couple of days.",
					},
				},
				{
					DayOffset: 7, SendHour: 11, TemplateID: "veteran_check_in", Priority: PriorityMedium, ScoreBoost: 3,
					Template: Template{
						Subject: "Checking in, {first_name}",
						HTML:    "<p>Hi {first_name},</p><p>Just checking in. Housing searches stall for all kinds of reasons, and none of them disqualify you here. If the timing was wrong last week, this week is fine too.</p><p>One reply is all it takes to pick things back up.</p>",
						Text:    "Hi {first_name},\n\nJust checking in. Housing searches stall for all kinds of reasons, and none of them disqualify you here. If the timing was wrong last week, this week is fine too.\n\nOne reply is all it takes to pick things back up.",
					},
				},
				{
					DayOffset: 14, SendHour: 10, TemplateID: "veteran_final_reach", Priority: PriorityLow, ScoreBoost: 0,
					Template: Template{
						Subject: "We'll keep a spot warm for you",
						HTML:    "<p>Hi {first_name},</p><p>This is our last scheduled note, but not the end of the road. Your file stays open with us, and veteran placements come up every month.</p><p>Whenever you are ready, call (555) 014-2400 and mention your name. We will know who you are.</p>",
						Text:    "Hi {first_name},\n\nThis is our last scheduled note, but not the end of the road. Your file stays open with us, and veteran placements come up every month.\n\nWhenever you are ready, call (555) 014-2400 and mention your name. We will know who you are.",
					},
				},
			},
		},
		{
			Type: TypeRecovery,
			Steps: []Step{
				{
					DayOffset: 0, SendHour: 10, TemplateID: "recovery_welcome", Priority: PriorityHigh, ScoreBoost: 10,
					Template: Template{
						Subject: "Welcome {first_name} - sober living with real support",
						HTML:    "<p>Hi {first_name},</p><p>Reaching out took courage, and we do not take it lightly. HavenPath runs substance-free homes where recovery is the house culture, not a rule on a wall.</p><p>Reply here or call (555) 014-2400 to talk with someone who has been where you are.</p>",
						Text:    "Hi {first_name},\n\nReaching out took courage, and we do not take it lightly. HavenPath runs substance-free homes where recovery is the house culture, not a rule on a wall.\n\nReply here or call (555) 014-2400 to talk with someone who has been where you are.",
					},
				},
				{
					DayOffset: 2, SendHour: 14, TemplateID: "recovery_community", Priority: PriorityMedium, ScoreBoost: 5,
					Template: Template{
						Subject: "What house community actually looks like",
						HTML:    "<p>Hi {first_name},</p><p>Our residents cook together on Sundays, ride to meetings together, and hold each other to house agreements they wrote themselves. Structure without surveillance.</p><p>Come see a house before you decide anything. Tours run every weekday.</p>",
						Text:    "Hi {first_name},\n\nOur residents cook together on Sundays, ride to meetings together, and hold each other to house agreements they wrote themselves. Structure without surveillance.\n\nCome see a house before you decide anything. Tours run every weekday.",
					},
				},
				{
					DayOffset: 5, SendHour: 11, TemplateID: "recovery_support_services", Priority: PriorityMedium, ScoreBoost: 3,
					Template: Template{
						Subject: "{first_name}, housing is step one - here's the rest",
						HTML:    "<p>Hi {first_name},</p><p>Every HavenPath recovery residence connects you with outpatient programs, job coaching, and a peer mentor in your first week. Rent is income-based, and no one starts with a deposit.</p><p>Questions? Just reply, a person reads these.</p>",
						Text:    "Hi {first_name},\n\nEvery HavenPath recovery residence connects you with outpatient programs, job coaching, and a peer mentor in your first week. Rent is income-based, and no one starts with a deposit.\n\nQuestions? Just reply, a person reads these.",
					},
				},
				{
					DayOffset: 10, SendHour: 10, TemplateID: "recovery_follow_up", Priority: PriorityLow, ScoreBoost: 0,
					Template: Template{
						Subject: "Still here when you're ready",
						HTML:    "<p>Hi {first_name},</p><p>No pressure and no expiration date. If now is not the moment, your inquiry stays on file and you can restart with one phone call.</p><p>(555) 014-2400, any weekday 9 to 5.</p>",
						Text:    "Hi {first_name},\n\nNo pressure and no expiration date. If now is not the moment, your inquiry stays on file and you can restart with one phone call.\n\n(555) 014-2400, any weekday 9 to 5.",
					},
				},
			},
		},
		{
			Type: TypeReentry,
			Steps: []Step{
				{
					DayOffset: 0, SendHour: 10, TemplateID: "reentry_welcome", Priority: PriorityHigh, ScoreBoost: 10,
					Template: Template{
						Subject: "Welcome {first_name} - housing that doesn't ask twice",
						HTML:    "<p>Hi {first_name},</p><p>A record is not a verdict on where you get to live. HavenPath places people rebuilding after incarceration every single week, and our landlord partners already know who we refer.</p><p>Reply or call (555) 014-2400 and let's find you a door with your name on it.</p>",
						Text:    "Hi {first_name},\n\nA record is not a verdict on where you get to live. HavenPath places people rebuilding after incarceration every single week, and our landlord partners already know who we refer.\n\nReply or call (555) 014-2400 and let's find you a door with your name on it.",
					},
				},
				{
					DayOffset: 2, SendHour: 15, TemplateID: "reentry_fresh_start", Priority: PriorityMedium, ScoreBoost: 5,
					Template: Template{
						Subject: "The first 90 days, mapped out",
						HTML:    "<p>Hi {first_name},</p><p>Our reentry track pairs housing with a 90-day plan: ID and documents in week one, income source by week four, stable routine by month three. You set the goals, we clear the obstacles.</p><p>Want to see the plan template? Just ask.</p>",
						Text:    "Hi {first_name},\n\nOur reentry track pairs housing with a 90-day plan: ID and documents in week one, income source by week four, stable routine by month three. You set the goals, we clear the obstacles.\n\nWant to see the plan template? Just ask.",
					},
				},
				{
					DayOffset: 6, SendHour: 10, TemplateID: "reentry_employment", Priority: PriorityMedium, ScoreBoost: 3,
					Template: Template{
						Subject: "{first_name}, employers who hire on today, not yesterday",
						HTML:    "<p>Hi {first_name},</p><p>We work with a bench of second-chance employers in warehousing, kitchens, and construction. Most of our residents have an income within their first month.</p><p>Housing applications go faster with income lined up. Want an intro?</p>",
						Text:    "Hi {first_name},\n\nWe work with a bench of second-chance employers in warehousing, kitchens, and construction. Most of our residents have an income within their first month.\n\nHousing applications go faster with income lined up. Want an intro?",
					},
				},
				{
					DayOffset: 12, SendHour: 11, TemplateID: "reentry_follow_up", Priority: PriorityLow, ScoreBoost: 0,
					Template: Template{
						Subject: "Your file stays open",
						HTML:    "<p>Hi {first_name},</p><p>This is the last scheduled email, but your inquiry does not expire. Conditions change, placements open, and one call restarts everything.</p><p>(555) 014-2400. Ask for the reentry team.</p>",
						Text:    "Hi {first_name},\n\nThis is the last scheduled email, but your inquiry does not expire. Conditions change, placements open, and one call restarts everything.\n\n(555) 014-2400. Ask for the reentry team.",
					},
				},
			},
		},
		{
			Type: TypeGeneral,
			Steps: []Step{
				{
					DayOffset: 0, SendHour: 10, TemplateID: "general_welcome", Priority: PriorityHigh, ScoreBoost: 8,
					Template: Template{
						Subject: "Welcome {first_name} - let's find you stable housing",
						HTML:    "<p>Hi {first_name},</p><p>Thanks for contacting HavenPath. We run transitional and supportive housing across the county, with rent scaled to income and no application fees.</p><p>Reply with a little about your situation, or call (555) 014-2400, and we will point you at the right program.</p>",
						Text:    "Hi {first_name},\n\nThanks for contacting HavenPath. We run transitional and supportive housing across the county, with rent scaled to income and no application fees.\n\nReply with a little about your situation, or call (555) 014-2400, and we will point you at the right program.",
					},
				},
				{
					DayOffset: 3, SendHour: 14, TemplateID: "general_programs", Priority: PriorityMedium, ScoreBoost: 4,
					Template: Template{
						Subject: "Which program fits you, {first_name}?",
						HTML:    "<p>Hi {first_name},</p><p>Shared homes for fast move-in, single units for independence, and supportive housing when you want a case manager in your corner. Most placements complete within two weeks of the first tour.</p><p>Want help choosing? A ten-minute call usually settles it.</p>",
						Text:    "Hi {first_name},\n\nShared homes for fast move-in, single units for independence, and supportive housing when you want a case manager in your corner. Most placements complete within two weeks of the first tour.\n\nWant help choosing? A ten-minute call usually settles it.",
					},
				},
				{
					DayOffset: 9, SendHour: 11, TemplateID: "general_follow_up", Priority: PriorityLow, ScoreBoost: 0,
					Template: Template{
						Subject: "Door's still open",
						HTML:    "<p>Hi {first_name},</p><p>We have not heard back, and that is completely fine. Your inquiry stays active with us, and new units open every month.</p><p>Whenever you are ready: (555) 014-2400, weekdays 9 to 5.</p>",
						Text:    "Hi {first_name},\n\nWe have not heard back, and that is completely fine. Your inquiry stays active with us, and new units open every month.\n\nWhenever you are ready: (555) 014-2400, weekdays 9 to 5.",
					},
				},
			},
		},
	}
}
