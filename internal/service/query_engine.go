package service

import (
	"regexp"
	"strings"
	"time"

	"court-order-server/internal/domain"
	apperrors "court-order-server/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// NoAnswer is returned whenever no rule produces an answer.
const NoAnswer = "I couldn't find relevant information in the document to answer your question."

const maxQueryMatches = 3

var (
	partyPattern  = regexp.MustCompile(`(?i)(?:plaintiff|defendant|petitioner|respondent|appellant|appellee)[\s:]+[^\n.]+`)
	datePattern   = regexp.MustCompile(`(?i)\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}|\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{2,4}`)
	amountPattern = regexp.MustCompile(`(?i)(?:Rs\.?|₹|INR)\s*[\d,]+(?:\.\d{2})?`)

	decisionKeywords = []string{
		"ordered", "decreed", "decided", "ruled", "judgment",
		"dismissed", "allowed", "granted", "denied",
	}
)

// QueryEngine answers questions about extracted text with fixed keyword rules.
// It holds no state and is safe for concurrent use.
type QueryEngine struct{}

// NewQueryEngine creates a new query engine
func NewQueryEngine() *QueryEngine {
	return &QueryEngine{}
}

// Answer classifies the query by the first matching keyword group and answers
// from that group only. It never returns an empty string.
func (e *QueryEngine) Answer(query, text string) string {
	q := strings.ToLower(query)

	switch {
	case containsAny(q, "parties", "involved"):
		if m := firstMatches(partyPattern, text); len(m) > 0 {
			return "Based on the document, the parties involved appear to be: " + strings.Join(m, ", ")
		}
	case containsAny(q, "date", "when"):
		if m := firstMatches(datePattern, text); len(m) > 0 {
			return "Key dates mentioned in the document: " + strings.Join(m, ", ")
		}
	case containsAny(q, "decision", "judgment", "ruling"):
		if s, ok := firstSentence(text, decisionKeywords); ok {
			return "The key decision appears to be: " + s
		}
	case containsAny(q, "amount", "fine", "penalty"):
		if m := firstMatches(amountPattern, text); len(m) > 0 {
			return "Monetary amounts mentioned: " + strings.Join(m, ", ")
		}
	default:
		var words []string
		for _, w := range strings.Split(q, " ") {
			if len(w) > 3 {
				words = append(words, w)
			}
		}
		if s, ok := firstSentence(text, words); ok {
			return "Relevant information: " + s
		}
	}
	return NoAnswer
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func firstMatches(re *regexp.Regexp, text string) []string {
	return re.FindAllString(text, maxQueryMatches)
}

// firstSentence returns the first sentence whose lower-cased form contains
// any of the keywords, trimmed.
func firstSentence(text string, keywords []string) (string, bool) {
	if len(keywords) == 0 {
		return "", false
	}
	for _, sentence := range SplitSentences(text) {
		if containsAny(strings.ToLower(sentence), keywords...) {
			return strings.TrimSpace(sentence), true
		}
	}
	return "", false
}

// QAService validates question requests and delegates to the query engine.
type QAService struct {
	engine   *QueryEngine
	validate *validator.Validate
	logger   domain.Logger
}

// NewQAService creates a new QA service
func NewQAService(engine *QueryEngine, validate *validator.Validate, logger domain.Logger) *QAService {
	return &QAService{engine: engine, validate: validate, logger: logger}
}

// Ask answers req. A blank query or missing document is a validation error;
// an empty extracted text simply yields NoAnswer.
func (s *QAService) Ask(req domain.QueryRequest) (domain.QueryAnswer, error) {
	if err := s.validate.Struct(req); err != nil || strings.TrimSpace(req.Query) == "" {
		return domain.QueryAnswer{}, apperrors.NewValidationError("Missing query or document data")
	}

	answer := s.engine.Answer(req.Query, req.DocumentData.ExtractedText)
	s.logger.Debug("Query answered",
		"query_len", len(req.Query),
		"text_len", len(req.DocumentData.ExtractedText),
		"found", answer != NoAnswer,
	)
	return domain.QueryAnswer{
		Answer:    answer,
		Query:     req.Query,
		Timestamp: time.Now().UTC(),
	}, nil
}
