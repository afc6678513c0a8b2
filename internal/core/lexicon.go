package core

// builtinNegators flip the valence of the word that follows them.
var builtinNegators = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true, "nobody": true,
	"don't": true, "dont": true, "doesn't": true, "doesnt": true, "didn't": true, "didnt": true,
	"isn't": true, "isnt": true, "wasn't": true, "wasnt": true, "aren't": true, "arent": true,
	"can't": true, "cant": true, "cannot": true, "couldn't": true, "couldnt": true,
	"won't": true, "wont": true, "wouldn't": true, "wouldnt": true, "shouldn't": true, "shouldnt": true,
	"ain't": true, "aint": true, "hardly": true,
}

// builtinLexicon is an AFINN-style valence table covering the vocabulary most
// common in student support chats. Values run from -5 (most negative) to +5.
var builtinLexicon = map[string]int{
	// strongly negative
	"suicide": -5, "suicidal": -5, "kill": -3, "killing": -3, "killed": -3,
	"die": -3, "dying": -3, "dead": -3, "death": -2,
	"hopeless": -2, "hopelessness": -3, "worthless": -3, "useless": -2,
	"miserable": -3, "misery": -3, "devastated": -3, "despair": -3, "desperate": -3,
	"terrible": -3, "horrible": -3, "awful": -3, "worst": -3, "hate": -3, "hated": -3, "hating": -3,
	"agony": -3, "torture": -4, "tortured": -4, "suffering": -2, "suffer": -2,
	"abuse": -3, "abused": -3, "abusive": -3, "rape": -4, "raped": -4,
	"panic": -3, "panicking": -3, "terrified": -3, "traumatized": -3, "trauma": -3,
	"disgusting": -3, "disgusted": -3, "pathetic": -2, "failure": -2, "loser": -3,

	// moderately negative
	"sad": -2, "sadness": -2, "unhappy": -2, "depressed": -2, "depression": -2, "depressing": -2,
	"lonely": -2, "alone": -2, "loneliness": -2, "isolated": -1, "empty": -1, "numb": -1,
	"anxious": -2, "anxiety": -2, "worried": -2, "worry": -2, "scared": -2, "afraid": -2, "fear": -2,
	"stressed": -2, "stress": -1, "overwhelmed": -2, "exhausted": -2, "tired": -2, "drained": -2,
	"hurt": -2, "hurting": -2, "pain": -2, "painful": -2, "cry": -1, "crying": -2, "cried": -2, "tears": -2,
	"broken": -1, "lost": -3, "fail": -2, "failed": -2, "failing": -2, "fails": -2,
	"bad": -3, "sick": -2, "ill": -2, "angry": -3, "anger": -3, "mad": -3, "furious": -3,
	"upset": -2, "guilty": -3, "guilt": -3, "ashamed": -2, "shame": -2, "embarrassed": -2,
	"trapped": -2, "stuck": -2, "helpless": -2, "powerless": -2, "weak": -2, "burden": -2,
	"reject": -1, "rejected": -1, "abandoned": -2, "ignored": -2, "bullied": -2, "bullying": -2,
	"broke": -1, "debt": -2, "drunk": -2, "problem": -2, "problems": -2, "trouble": -2,
	"miss": -2, "missed": -2, "grief": -2, "grieving": -2, "mourning": -2, "regret": -2,
	"disappointed": -2, "disappointing": -2, "frustrated": -2, "frustrating": -2, "annoyed": -2,
	"confused": -2, "insecure": -2, "unloved": -2, "unwanted": -2, "rejection": -2,
	"nightmare": -3, "nightmares": -3, "suck": -3, "sucks": -3, "crap": -3, "damn": -2,
	"bored": -2, "boring": -3, "struggle": -2, "struggling": -2, "difficult": -1, "hard": -1,
	"cut": -1, "bleeding": -2, "scar": -2, "scars": -2, "escape": -1, "disappear": -1,
	"ugly": -3, "stupid": -2, "dumb": -3, "idiot": -3,

	// mildly positive
	"want": 1, "like": 2, "ok": 1, "okay": 1, "fine": 2, "better": 2, "calm": 2, "relaxed": 2,
	"safe": 1, "support": 2, "supported": 2, "help": 2, "helped": 2, "helpful": 2, "helping": 2,
	"hope": 2, "hopes": 2, "hopeful": 2, "hoping": 2, "cool": 1, "interesting": 2, "nice": 3, "pleased": 3,
	"thanks": 2, "thank": 2, "grateful": 3, "thankful": 2, "appreciate": 2, "appreciated": 2,
	"care": 2, "cared": 2, "cares": 2, "friend": 1, "friends": 1, "friendly": 2,
	"proud": 2, "confident": 2, "strong": 2, "strength": 2, "peace": 2, "peaceful": 2,
	"rest": 1, "rested": 1, "enjoy": 2, "enjoyed": 2, "enjoying": 2, "fun": 4, "funny": 4,
	"laugh": 1, "laughing": 1, "smile": 2, "smiling": 2, "glad": 3, "relieved": 2, "relief": 1,
	"motivated": 1, "excited": 3, "exciting": 3, "win": 4, "won": 3, "success": 2, "passed": 1,

	// strongly positive
	"good": 3, "great": 3, "happy": 3, "happiness": 3, "love": 3, "loved": 3, "loving": 2,
	"wonderful": 4, "amazing": 4, "awesome": 4, "fantastic": 4, "excellent": 3, "brilliant": 4,
	"joy": 3, "joyful": 3, "blessed": 3, "beautiful": 3, "perfect": 3, "best": 3, "thrilled": 5,
	"outstanding": 5, "superb": 5, "delighted": 3, "ecstatic": 4,
}
