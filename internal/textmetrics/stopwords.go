package textmetrics

// stopwords is a map of frequently occurring words ignored in keyword and
// information-density analysis. The list can be extended as needed.
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "almost": {}, "along": {}, "already": {}, "also": {}, "although": {},
	"always": {}, "am": {}, "among": {}, "an": {}, "and": {}, "another": {},
	"any": {}, "anyone": {}, "anything": {}, "are": {}, "around": {}, "as": {},
	"at": {},

	"back": {}, "be": {}, "became": {}, "because": {}, "become": {}, "been": {},
	"before": {}, "behind": {}, "being": {}, "below": {}, "beside": {},
	"between": {}, "beyond": {}, "both": {}, "but": {}, "by": {},

	"can": {}, "cannot": {}, "could": {},

	"did": {}, "do": {}, "does": {}, "doing": {}, "done": {}, "down": {},
	"during": {},

	"each": {}, "either": {}, "else": {}, "enough": {}, "etc": {}, "even": {},
	"ever": {}, "every": {}, "everyone": {}, "everything": {},

	"few": {}, "for": {}, "from": {}, "further": {},

	"get": {}, "got": {},

	"had": {}, "has": {}, "have": {}, "having": {}, "he": {}, "hence": {},
	"her": {}, "here": {}, "hers": {}, "herself": {}, "him": {}, "himself": {},
	"his": {}, "how": {}, "however": {},

	"i": {}, "if": {}, "in": {}, "indeed": {}, "into": {}, "is": {}, "it": {},
	"its": {}, "itself": {},

	"just": {},

	"last": {}, "least": {}, "less": {}, "let": {}, "like": {},

	"made": {}, "make": {}, "many": {}, "may": {}, "maybe": {}, "me": {},
	"might": {}, "mine": {}, "more": {}, "most": {}, "mostly": {}, "much": {},
	"must": {}, "my": {}, "myself": {},

	"neither": {}, "never": {}, "next": {}, "no": {}, "nobody": {}, "none": {},
	"nor": {}, "not": {}, "nothing": {}, "now": {}, "nowhere": {},

	"of": {}, "off": {}, "often": {}, "on": {}, "once": {}, "one": {},
	"only": {}, "onto": {}, "or": {}, "other": {}, "others": {}, "otherwise": {},
	"our": {}, "ours": {}, "ourselves": {}, "out": {}, "over": {}, "own": {},

	"per": {}, "perhaps": {}, "please": {}, "put": {},

	"rather": {},

	"same": {}, "see": {}, "seem": {}, "seemed": {}, "seems": {}, "several": {},
	"she": {}, "should": {}, "since": {}, "so": {}, "some": {}, "somehow": {},
	"someone": {}, "something": {}, "sometimes": {}, "somewhere": {},
	"still": {}, "such": {},

	"take": {}, "than": {}, "that": {}, "the": {}, "their": {}, "theirs": {},
	"them": {}, "themselves": {}, "then": {}, "there": {}, "therefore": {},
	"these": {}, "they": {}, "this": {}, "those": {}, "through": {},
	"throughout": {}, "thus": {}, "to": {}, "together": {}, "too": {},
	"toward": {}, "towards": {},

	"under": {}, "until": {}, "up": {}, "upon": {}, "us": {}, "use": {},
	"used": {}, "using": {},

	"very": {}, "via": {},

	"was": {}, "we": {}, "well": {}, "were": {}, "what": {}, "whatever": {},
	"when": {}, "whenever": {}, "where": {}, "whereas": {}, "wherever": {},
	"whether": {}, "which": {}, "while": {}, "who": {}, "whoever": {},
	"whole": {}, "whom": {}, "whose": {}, "why": {}, "will": {}, "with": {},
	"within": {}, "without": {}, "would": {},

	"yet": {}, "you": {}, "your": {}, "yours": {}, "yourself": {},
	"yourselves": {},
}

// isStopword reports whether the lowercase token is in the stopword list.
func isStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}
