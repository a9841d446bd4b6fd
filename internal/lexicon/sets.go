package lexicon

// Defaults returns the canonical pattern registry. The phrase inventory
// is drawn from language cited in FCA enforcement findings (Nationwide,
// Barclays, Mako, Coinbase) where reliance on filters replaced
// independent judgment.
func Defaults() *Registry {
	return &Registry{
		ExplicitDeference: Set{
			mustPattern("per policy", `per policy`),
			mustPattern("per our policy", `per our policy`),
			mustPattern("threshold not met", `thresholds? not met`),
			mustPattern("does not meet the threshold", `does not meet the thresholds?`),
			mustPattern("below threshold", `below (?:reporting )?thresholds?`),
			mustPattern("no requirement to", `no requirement to`),
			mustPattern("not required to", `not required to`),
			mustPattern("as per guidelines", `as per guidelines`),
			mustPattern("in line with procedures", `in line with procedures`),
			mustPattern("in line with standard practice", `in line with standard practice`),
			mustPattern("no further action required", `no further action required`),
			mustPattern("standard practice", `standard practice`),
			mustPattern("consistent with our approach", `consistent with our approach`),
			mustPattern("system recommendation", `system recommendation`),
			mustPattern("automated review", `automated review`),
			mustPattern("filter indicates", `filter indicates`),
		},

		EuphemizedAutomation: Set{
			mustPattern("aligns with parameters", `aligns? with [a-z ]{0,30}parameters`),
			mustPattern("within parameters", `within [a-z ]{0,40}parameters`),
			mustPattern("within risk appetite", `within (?:the )?(?:\w+ )?risk appetite`),
			mustPattern("control framework", `control framework`),
			mustPattern("control environment", `control environment`),
			mustPattern("risk parameters", `risk parameters`),
			mustPattern("standard profile", `standard (?:retail )?(?:risk )?profile`),
			mustPattern("within tolerance", `within (?:\w+ )?tolerance`),
			mustPattern("consistent with baseline", `(?:within|consistent with) (?:the )?baseline`),
		},

		EvidenceOfAbsence: Set{
			mustPattern("no flags", `no flags`),
			mustPattern("no alerts", `no alerts`),
			mustPattern("clean screening", `clean screening`),
			mustPattern("screening clear", `screening (?:came back |was )?clear`),
			mustPattern("no sanctions matches", `no sanctions (?:matches|hits)`),
			mustPattern("no adverse media", `no adverse media`),
			mustPattern("no hits", `no hits`),
			mustPattern("nothing identified", `nothing (?:was )?identified`),
			mustPattern("no matches identified", `no matches (?:were )?identified`),
		},

		PolicyCitation: Set{
			mustPattern("per policy", `per (?:our )?policy`),
			mustPattern("policy states", `policy states`),
			mustPattern("in accordance with policy", `in accordance with (?:the )?policy`),
			mustPattern("as per guidelines", `as per (?:the )?guidelines`),
			mustPattern("in line with procedures", `in line with (?:\w+ )?procedures`),
			mustPattern("under our procedures", `under our procedures`),
			mustPattern("policy framework", `policy framework`),
			mustPattern("consistent with policy", `consistent with (?:the )?policy`),
		},

		NegativeOutcome: Set{
			mustPattern("no escalation", `no escalation`),
			mustPattern("not escalating", `not (?:be )?escalat(?:ed|ing)`),
			mustPattern("cleared", `\bclear(?:ed|ing)\b`),
			mustPattern("acceptable", `\bacceptable\b`),
			mustPattern("standard monitoring", `standard monitoring`),
			mustPattern("continue monitoring", `continue (?:\w+ )?monitoring`),
			mustPattern("no further action", `no further action`),
			mustPattern("no action required", `no (?:immediate |further )?action (?:is )?required`),
			mustPattern("proceed with onboarding", `proceed with (?:the )?onboarding`),
			mustPattern("close the case", `clos(?:e|ed|ing) (?:the |this )?case`),
		},

		ThresholdAbsolutism: Set{
			mustPattern("below threshold", `below (?:the )?(?:reporting |escalation )?thresholds?`),
			mustPattern("under the threshold", `under (?:the )?(?:reporting )?thresholds?`),
			mustPattern("threshold not met", `thresholds? not met`),
			mustPattern("does not meet the threshold", `does not meet (?:the )?thresholds?`),
			mustPattern("sub-threshold", `sub-?thresholds?`),
			mustPattern("within reporting limits", `within (?:the )?reporting limits?`),
		},

		Distributive: Set{
			mustPattern("each", `\beach\b`),
			mustPattern("per transaction", `\bper transaction\b`),
			mustPattern("individual", `\bindividual(?:ly)?\b`),
			mustPattern("any single", `\bany single\b`),
			mustPattern("every", `\bevery\b`),
		},

		AggregateAnalysis: Set{
			mustPattern("aggregate of", `aggregate of`),
			mustPattern("total represents", `total (?:of [^ ]+ )?represents`),
			mustPattern("material change", `material change`),
			mustPattern("transaction velocity", `transaction velocity`),
			mustPattern("pattern as a whole", `pattern as a whole`),
			mustPattern("totality of", `totality of`),
			mustPattern("in combination", `in combination`),
			mustPattern("cumulative", `\bcumulative(?:ly)?\b`),
			mustPattern("taken together", `taken together`),
		},

		SubstantiveIndicators: Set{
			// behavioural
			mustPattern("behaviour", `\bbehaviou?r\b`),
			mustPattern("pattern", `\bpatterns?\b`),
			mustPattern("velocity", `\bvelocity\b`),
			mustPattern("frequency", `\bfrequency\b`),
			mustPattern("structuring", `\bstructuring\b`),
			mustPattern("layering", `\blayering\b`),
			mustPattern("smurfing", `\bsmurfing\b`),
			mustPattern("unusual", `\bunusual\b`),
			mustPattern("anomalous", `\banomalous\b`),
			mustPattern("atypical", `\batypical\b`),
			// intent
			mustPattern("intent", `\bintent\b`),
			mustPattern("purpose", `\bpurpose\b`),
			mustPattern("source", `\bsource\b`),
			mustPattern("origin", `\borigin\b`),
			mustPattern("provenance", `\bprovenance\b`),
			mustPattern("legitimate", `\blegitimate\b`),
			mustPattern("plausible", `\bplausible\b`),
			mustPattern("credible", `\bcredible\b`),
			// comparative
			mustPattern("compared to", `compared to`),
			mustPattern("inconsistent with", `inconsistent with`),
			mustPattern("deviation from", `deviation from`),
			mustPattern("benchmark", `\bbenchmark\b`),
			mustPattern("expected", `\bexpected\b`),
			mustPattern("typical", `\btypical\b`),
			// risk
			mustPattern("risk", `\brisk\b`),
			mustPattern("exposure", `\bexposure\b`),
			mustPattern("threat", `\bthreat\b`),
			mustPattern("concern", `\bconcern(?:s|ing)?\b`),
			mustPattern("suspicious", `\bsuspicious\b`),
			mustPattern("red flag", `red flags?`),
			// contextual
			mustPattern("jurisdiction", `\bjurisdictions?\b`),
			mustPattern("PEP", `\bpeps?\b`),
			mustPattern("sanction", `\bsanctions?\b`),
			mustPattern("adverse media", `adverse media`),
		},

		ProceduralContexts: Set{
			mustPattern("risk parameters", `risk parameters`),
			mustPattern("risk appetite", `risk appetite`),
			mustPattern("risk profile", `risk profile`),
			mustPattern("control environment", `control environment`),
			mustPattern("baseline", `\bbaseline\b`),
			mustPattern("standard profile", `standard (?:retail )?(?:risk )?profile`),
		},

		AggregateMarkers: []string{
			"total", "aggregate", "sum", "combined",
			"overall", "totaling", "totalling", "in total",
		},
	}
}
