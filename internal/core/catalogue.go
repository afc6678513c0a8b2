package core

// builtinCrisisPatterns is the reviewed crisis catalogue. Patterns are phrased
// broadly on purpose: a false positive shows a supportive message, a false
// negative misses someone at risk.
//
// Weight bands: critical 0.90-1.00, high 0.70-0.80, medium 0.50-0.60, low 0.30-0.40.
var builtinCrisisPatterns = []PatternSpec{
	// critical: direct intent, plans, methods
	{Tier: "critical", Weight: 1.0, Pattern: `\b(kill|killing|hurt|hurting|harm|harming)\s+my\s?self\b`,
		Description: "Direct statement of intent to kill or harm oneself"},
	{Tier: "critical", Weight: 0.95, Pattern: `\b(want|wanna|going|gonna|plan|planning|ready|about)\s+to\s+(die|end\s+(it\s+all|it|everything))\b`,
		Description: "Stated intent or plan to die"},
	{Tier: "critical", Weight: 0.95, Pattern: `\b(end|ending|take|taking)\s+my\s+(own\s+)?life\b`,
		Description: "Intent to end one's own life"},
	{Tier: "critical", Weight: 0.9, Pattern: `\bsuicid(e|al)\b`,
		Description: "Mentions suicide or suicidal thoughts"},
	{Tier: "critical", Weight: 1.0, Pattern: `\b(overdos(e|ing)|(cut|cutting|slit|slitting)\s+my\s+(wrists?|arms?|throat)|hang(ing)?\s+my\s?self|jump(ing)?\s+(off|from)\s+(a|the)\s+(bridge|building|roof|cliff))\b`,
		Description: "Mentions a specific self-harm method"},
	{Tier: "critical", Weight: 0.9, Pattern: `\b(this\s+is\s+(my\s+)?goodbye|goodbye\s+forever|(suicide|farewell)\s+(note|letter))\b`,
		Description: "Farewell or goodbye message"},

	// high: hopelessness, escape, disappearance
	{Tier: "high", Weight: 0.8, Pattern: `\b(hopeless|no\s+hope|without\s+hope|lost\s+all\s+hope)\b`,
		Description: "Expression of hopelessness"},
	{Tier: "high", Weight: 0.75, Pattern: `\b(can'?t|cannot|can\s+not)\s+(take|handle|do)\s+(it|this)\s+any\s?more\b`,
		Description: "Unable to cope any longer"},
	{Tier: "high", Weight: 0.75, Pattern: `\b(can'?t|cannot|can\s+not)\s+go\s+on\b`,
		Description: "Unable to go on"},
	{Tier: "high", Weight: 0.8, Pattern: `\b(want|wish)\s+(to|i\s+could)\s+(disappear|vanish|escape\s+(it\s+all|everything|life)|not\s+exist|not\s+wake\s+up|never\s+wake\s+up)\b`,
		Description: "Desire to disappear or stop existing"},
	{Tier: "high", Weight: 0.8, Pattern: `\bwish\s+i\s+(was|were|wasn'?t)\s+(dead|never\s+born|alive|here)\b`,
		Description: "Wishing to be dead or never born"},
	{Tier: "high", Weight: 0.8, Pattern: `\bno\s+(reason|point)\s+(to|in)\s+(live|living|go(ing)?\s+on|being\s+alive)\b`,
		Description: "No reason to keep living"},
	{Tier: "high", Weight: 0.7, Pattern: `\b(so\s+trapped|feel(ing)?\s+trapped|no\s+way\s+out)\b`,
		Description: "Feeling trapped with no way out"},

	// medium: worthlessness, burden, passive ideation
	{Tier: "medium", Weight: 0.6, Pattern: `\b(better\s+off\s+(dead|without\s+me)|world\s+would\s+be\s+better\s+without\s+me)\b`,
		Description: "Belief that others would be better off without them"},
	{Tier: "medium", Weight: 0.55, Pattern: `\b(i'?m|i\s+am|feel(ing)?|felt)\s+(so\s+|completely\s+|totally\s+)?(worthless|useless|a\s+burden|like\s+a\s+burden)\b`,
		Description: "Worthlessness or feeling like a burden"},
	{Tier: "medium", Weight: 0.55, Pattern: `\bhate\s+(my\s?self|my\s+life)\b`,
		Description: "Self-hatred"},
	{Tier: "medium", Weight: 0.5, Pattern: `\b(nobody|no\s+one)\s+(cares|would\s+(care|notice|miss\s+me))\b`,
		Description: "Belief that nobody cares"},
	{Tier: "medium", Weight: 0.5, Pattern: `\bwhat'?s\s+the\s+point\b`,
		Description: "Questioning the point of continuing"},

	// low: numbness, persistent sadness
	{Tier: "low", Weight: 0.35, Pattern: `\b(numb|empty\s+inside|dead\s+inside)\b`,
		Description: "Emotional numbness or emptiness"},
	{Tier: "low", Weight: 0.35, Pattern: `\b(always|constantly|so|really)\s+(sad|depressed|down)\b`,
		Description: "Persistent sadness"},
	{Tier: "low", Weight: 0.4, Pattern: `\b(tired|sick)\s+of\s+(living|life|everything|being\s+alive)\b`,
		Description: "Weariness with life"},
	{Tier: "low", Weight: 0.3, Pattern: `\b(can'?t|cannot)\s+(sleep|eat)\b`,
		Description: "Sleep or appetite disturbance"},
	{Tier: "low", Weight: 0.3, Pattern: `\b(cry|crying)\s+(all\s+the\s+time|every\s+(day|night)|myself\s+to\s+sleep)\b`,
		Description: "Frequent crying"},
}

// builtinRiskFactors are corroborating context: they never set a tier on
// their own but raise the score and the confidence.
var builtinRiskFactors = []RiskFactorSpec{
	{Category: "isolation", Pattern: `\b(alone|lonely|loneliness|isolated|no\s+friends|nobody\s+to\s+talk\s+to)\b`},
	{Category: "substance_use", Pattern: `\b(drunk|drinking|alcohol|pills|drugs|wasted|stoned)\b`},
	{Category: "financial_crisis", Pattern: `\b((i'?m|i\s+am|totally|completely|flat)\s+broke|debt|can'?t\s+afford|can'?t\s+pay\s+(my\s+)?(rent|fees|tuition)|evicted|lost\s+my\s+job)\b`},
	{Category: "family_crisis", Pattern: `\b(divorce|abused|abusive|kicked\s+out|family\s+(problems|issues|fights?))\b`},
	{Category: "relationship_loss", Pattern: `\b(broke\s+up|break\s?up|dumped|passed\s+away|lost\s+my\s+(friend|partner|mom|dad|mother|father|brother|sister))\b`},
	{Category: "academic_crisis", Pattern: `\b(fail(ed|ing)\s+(my\s+|all\s+my\s+)?(exams?|classes|courses?|semester)|expelled|dropp(ed|ing)\s+out|academic\s+probation)\b`},
	{Category: "bullying", Pattern: `\b(bullied|bullying|harass(ed|ment)|made\s+fun\s+of)\b`},
	{Category: "prior_attempt", Pattern: `\b((tried|attempted)\s+(to\s+)?(kill\s+myself|suicide|end\s+(it|my\s+life))|(last|previous|first)\s+attempt)\b`},
	{Category: "self_harm_history", Pattern: `\b(self[-\s]?harm(ed|ing)?|relapsed?)\b`},
}
