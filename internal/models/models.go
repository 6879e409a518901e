package models

import (
	"encoding/json"
	"strings"
	"time"

	"kdcflow/internal/util"
)

// Book is the bibliographic record fetched from the catalog. All fields are
// optional free text.
type Book struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	PubDate     string `json:"pub_date,omitempty"`
	ISBN13      string `json:"isbn13,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	TOC         string `json:"toc,omitempty"`
}

func (b Book) IsEmpty() bool {
	return b.Title == "" && b.Description == "" && b.Category == "" && b.TOC == ""
}

type BookSummary struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	PubDate     string `json:"pub_date,omitempty"`
	ISBN13      string `json:"isbn13,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	HasTOC      bool   `json:"has_toc"`
}

type ClassificationRun struct {
	RunID      string          `json:"run_id"`
	ISBN       string          `json:"isbn"`
	BatchID    string          `json:"batch_id,omitempty"`
	Status     string          `json:"status"`
	FinalCode  string          `json:"final_code,omitempty"`
	AnchorCode string          `json:"anchor_code,omitempty"`
	FailReason string          `json:"fail_reason,omitempty"`
	Evidence   json.RawMessage `json:"evidence,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type BatchRun struct {
	BatchID   string    `json:"batch_id"`
	Total     int       `json:"total"`
	Status    string    `json:"status"`
	OutPath   string    `json:"out_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SummaryDescriptionRunes bounds the description carried in summaries.
const SummaryDescriptionRunes = 600

// Summary is the display-bounded view of a book used in decision records.
func (b Book) Summary() BookSummary {
	return BookSummary{
		Title:       b.Title,
		Author:      b.Author,
		Publisher:   b.Publisher,
		PubDate:     b.PubDate,
		ISBN13:      b.ISBN13,
		Category:    b.Category,
		Description: util.DisplaySnippet(b.Description, SummaryDescriptionRunes),
		HasTOC:      strings.TrimSpace(b.TOC) != "",
	}
}

// NormalizeISBN strips separators and accepts 10 or 13 character ISBNs.
// A trailing X is allowed on ISBN-10.
func NormalizeISBN(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		case r == '-' || r == ' ':
		default:
			return "", false
		}
	}
	s := b.String()
	switch len(s) {
	case 13:
		if strings.Contains(s, "X") {
			return "", false
		}
		return s, true
	case 10:
		if i := strings.Index(s, "X"); i >= 0 && i != 9 {
			return "", false
		}
		return s, true
	}
	return "", false
}

// ISBN13 converts a normalized ISBN-10 to its 978 form. A 13 digit input is
// returned unchanged.
func ISBN13(isbn string) string {
	if len(isbn) != 10 {
		return isbn
	}
	body := "978" + isbn[:9]
	sum := 0
	for i, r := range body {
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return body + string(rune('0'+(10-sum%10)%10))
}
