package domain

// MessageKind classifies a normalized inbound message.
type MessageKind string

const (
	// KindText is a plain text message.
	KindText MessageKind = "text"
	// KindImage is an image message carrying a provider media handle.
	KindImage MessageKind = "image"
	// KindUnsupported covers every other provider message type.
	KindUnsupported MessageKind = "unsupported"
)

// IncomingMessage is one normalized inbound webhook event.
type IncomingMessage struct {
	SenderID    string
	Kind        MessageKind
	Text        string
	MediaRef    string
	ProfileName string
}

// Unit is the measurement basis of a food quantity.
type Unit string

const (
	// UnitGram means the quantity is grams.
	UnitGram Unit = "g"
	// UnitMilliliter means the quantity is milliliters.
	UnitMilliliter Unit = "ml"
	// UnitPiece means the quantity is a count of whole items.
	UnitPiece Unit = "un"
)

// FoodEntry is one recognized food item within a message.
type FoodEntry struct {
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
	Kcal     float64 `json:"kcal"`
}

// Estimate is the result of running the calorie estimator over a text.
// An empty Entries slice means nothing was recognized; that is not an error.
type Estimate struct {
	Entries []FoodEntry
	Total   float64
}

// DailyLog accumulates one sender's food entries for a calendar day.
// It lives in a session store only and is intentionally lost on restart.
type DailyLog struct {
	Date      string      `json:"date"`
	Entries   []FoodEntry `json:"entries"`
	TotalKcal float64     `json:"total_kcal"`
}

// Append adds entries and keeps TotalKcal equal to the sum of all entries.
func (l *DailyLog) Append(entries ...FoodEntry) {
	l.Entries = append(l.Entries, entries...)
	total := 0.0
	for _, e := range l.Entries {
		total += e.Kcal
	}
	l.TotalKcal = total
}

// ChatTurn is one prior exchange kept for the LLM context window.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	// TurnUser marks a turn authored by the sender.
	TurnUser = "user"
	// TurnAssistant marks a turn authored by the bot.
	TurnAssistant = "assistant"
)

// OutboundReply is a text payload targeted at a sender.
type OutboundReply struct {
	To   string
	Body string
}

// DispatchState is the terminal state of one dispatcher call.
type DispatchState string

const (
	// DispatchSuccess means some variant returned a 2xx status.
	DispatchSuccess DispatchState = "success"
	// DispatchExhausted means every variant failed.
	DispatchExhausted DispatchState = "exhausted_failure"
)

// DispatchAttempt records one variant attempt for diagnostics.
type DispatchAttempt struct {
	Variant    string
	URL        string
	StatusCode int
	Body       string
	Err        string
}

// DispatchResult is the typed outcome of a dispatcher call: the terminal
// state plus one attempt record per variant tried, in order.
type DispatchResult struct {
	State    DispatchState
	Variant  string
	Body     string
	Attempts []DispatchAttempt
}
