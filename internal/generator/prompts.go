package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"kdcflow/internal/kdc"
	"kdcflow/internal/models"
	"kdcflow/internal/util"
)

const systemPrompt = "너는 한국십진분류(KDC) 전문가다. 주어진 도서 정보와 제약 조건만으로 분류기호를 정한다."

const (
	promptDescriptionRunes = 1200
	promptTOCRunes         = 600
)

type promptBook struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	PubDate     string `json:"pub_date,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	TOC         string `json:"toc,omitempty"`
}

func bookBlock(b models.Book) string {
	pb := promptBook{
		Title:       util.CleanText(b.Title),
		Author:      util.CleanText(b.Author),
		Publisher:   util.CleanText(b.Publisher),
		PubDate:     util.CleanText(b.PubDate),
		Category:    util.CleanText(b.Category),
		Description: util.TruncateRunes(util.CleanText(b.Description), promptDescriptionRunes),
		TOC:         util.TruncateRunes(util.CleanText(b.TOC), promptTOCRunes),
	}
	raw, _ := json.MarshalIndent(pb, "", "  ")
	return string(raw)
}

func allowedBlock(allowed kdc.AllowedSet, limit int) string {
	entries := allowed.Preview(limit)
	if len(entries) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("허용 분류 (기호: 항목명):\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s: %s\n", e.Code, e.Label)
	}
	if rest := allowed.Len() - len(entries); rest > 0 {
		fmt.Fprintf(&sb, "(그 외 %d개 생략)\n", rest)
	}
	return sb.String()
}

func contextBlock(req Request, limit int) string {
	var sb strings.Builder
	sb.WriteString("도서 정보:\n")
	sb.WriteString(bookBlock(req.Book))
	sb.WriteString("\n\n")
	if c := req.Anchor.Describe(); c != "" {
		sb.WriteString("제약: ")
		sb.WriteString(c)
		sb.WriteString("\n\n")
	}
	sb.WriteString(allowedBlock(req.Allowed, limit))
	return sb.String()
}

func singlePrompt(req Request, limit int) string {
	return contextBlock(req, limit) +
		"\n위 도서의 KDC 분류기호 하나를 답하라. 예: 813.7\n숫자만 출력."
}

func rankedPrompt(req Request, limit int, multi bool) string {
	var sb strings.Builder
	sb.WriteString(contextBlock(req, limit))
	sb.WriteString("\n위 도서에 맞는 KDC 분류기호 후보를 3~5개 제시하라. 가능한 한 소수점 이하까지 구체적으로 답하라.\n")
	if multi {
		sb.WriteString("제목만, 설명만, 목차만 각각 보고 판단한 후보를 섞어서 제시하고, 각 후보의 perspective에 근거가 된 관점(title, description, toc)을 적어라.\n")
	}
	sb.WriteString(`JSON만 출력: {"candidates":[{"code":"813.7","confidence":0.9,"evidence":["근거 키워드"],"perspective":"title"}]}`)
	sb.WriteString("\nconfidence는 0과 1 사이 값이다.")
	return sb.String()
}

func refinePrompt(req Request, limit int, previous string) string {
	return contextBlock(req, limit) +
		fmt.Sprintf("\n직전 답 %s은(는) 최상위 류(類)만 나타내어 너무 포괄적이다. 이 책은 일반 참고서가 아니므로 반드시 세목까지 구체화하라.\n", previous) +
		"백의 자리 외에 십의 자리나 일의 자리, 또는 소수점 이하가 0이 아닌 분류기호 하나를 답하라. 예: 813.7\n숫자만 출력."
}
