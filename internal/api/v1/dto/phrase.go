package dto

type PhraseResponse struct {
	ID          string `json:"id"`
	Language    string `json:"language"`
	Category    string `json:"category"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// UsageInfoResponse reports the caller's role and today's counter. DailyLimit
// is omitted when no limit applies.
type UsageInfoResponse struct {
	Role              string `json:"role"`
	DailyPhrasesCount int    `json:"dailyPhrasesCount"`
	DailyLimit        int    `json:"dailyLimit,omitempty"`
}

type PhrasesResponse struct {
	Phrases  []PhraseResponse  `json:"phrases"`
	UserInfo UsageInfoResponse `json:"userInfo"`
}

type IncrementResponse struct {
	DailyPhrasesCount int `json:"dailyPhrasesCount"`
}

type ReadingResponse struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}
