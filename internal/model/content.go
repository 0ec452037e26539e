package model

// Phrase is a single study phrase. Phrases are read-only for this service.
type Phrase struct {
	ID          string `db:"id" json:"id"`
	Language    string `db:"language" json:"language"`
	Category    string `db:"category" json:"category"`
	Text        string `db:"text" json:"text"`
	Translation string `db:"translation" json:"translation"`
}

// PhraseFilter narrows a phrase query. An empty field matches everything;
// a nil Categories slice means no allow-list applies.
type PhraseFilter struct {
	Language   string
	Category   string
	Categories []string
}

// Reading is an interlinear reading text.
type Reading struct {
	ID       string `db:"id" json:"id"`
	Language string `db:"language" json:"language"`
	Title    string `db:"title" json:"title"`
	Content  string `db:"content" json:"content"`
}
