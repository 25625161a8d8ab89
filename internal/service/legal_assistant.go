package service

import (
	"regexp"
	"strings"
	"time"

	"court-order-server/internal/domain"
)

// LegalDisclaimer accompanies every legal assistant response.
const LegalDisclaimer = "This is general information only and not legal advice. Consult with a qualified attorney for legal advice specific to your situation."

const legalDefaultResponse = "I understand you're asking about legal matters. Could you please be more specific about what you'd like to know?"

var greetingPattern = regexp.MustCompile(`\b(?:hello|hi|help)\b`)

type legalRule struct {
	match    func(msg string) bool
	response func(ctx *domain.LegalAssistantContext) string
}

func keywords(words ...string) func(string) bool {
	return func(msg string) bool { return containsAny(msg, words...) }
}

func fixed(text string) func(*domain.LegalAssistantContext) string {
	return func(*domain.LegalAssistantContext) string { return text }
}

var legalRules = []legalRule{
	{
		match: keywords("next steps", "what should"),
		response: fixed("Based on legal documents like this, typical next steps might include: 1) Reviewing all terms and conditions carefully, " +
			"2) Consulting with a qualified lawyer for personalized advice, 3) Ensuring compliance with any deadlines mentioned, " +
			"4) Gathering supporting documentation if needed. Please consult with a legal professional for advice specific to your situation."),
	},
	{
		match: keywords("implications"),
		response: fixed("Legal implications can vary significantly based on the specific circumstances and jurisdiction. " +
			"This document appears to contain important legal information that could affect rights, obligations, or legal standing. " +
			"I strongly recommend consulting with a qualified attorney who can provide personalized legal advice based on your specific situation and local laws."),
	},
	{
		match:    keywords("key points", "summary", "main"),
		response: keyPointsResponse,
	},
	{
		match: keywords("deadline", "time limit", "due date"),
		response: fixed("Deadlines in legal documents are critical. Please carefully review the document for any specific dates, time limits, or deadlines mentioned. " +
			"Missing legal deadlines can have serious consequences. If you're unsure about any deadlines, consult with a lawyer immediately."),
	},
	{
		match: keywords("court", "hearing", "appearance"),
		response: fixed("Court-related matters require careful attention to procedures and deadlines. " +
			"If this document relates to court proceedings, ensure you understand any required appearances, filing deadlines, or procedural requirements. " +
			"Consider consulting with an attorney familiar with court procedures in your jurisdiction."),
	},
	{
		match: keywords("appeal", "challenge"),
		response: fixed("Appeals and legal challenges typically have strict time limits and procedural requirements. " +
			"If you're considering an appeal or challenge, it's crucial to act quickly and consult with a qualified attorney who can advise you on the specific procedures, deadlines, and merits of your case."),
	},
	{
		match: keywords("rights", "obligations"),
		response: fixed("Legal documents often establish or modify rights and obligations. " +
			"Understanding these fully requires careful analysis of the specific language used and how it applies to your situation. " +
			"A qualified attorney can help you understand your rights and obligations under this document."),
	},
	{
		match: greetingPattern.MatchString,
		response: fixed("Hello! I'm here to help you understand legal documents. I can provide general information about legal concepts, " +
			"but please remember that I cannot provide specific legal advice. For personalized legal guidance, always consult with a qualified attorney. " +
			"How can I assist you with understanding this document?"),
	},
}

func keyPointsResponse(ctx *domain.LegalAssistantContext) string {
	if ctx == nil || strings.TrimSpace(ctx.ExtractedText) == "" {
		return "To provide key points, I would need access to the processed document content. Please ensure a document has been successfully analyzed first."
	}
	docType := "legal document"
	if ctx.DocumentAnalysis != nil && ctx.DocumentAnalysis.Type != "" {
		docType = ctx.DocumentAnalysis.Type
	}
	summary := ctx.Summary
	if summary == "" {
		summary = "Key details have been extracted and processed."
	}
	return "Based on the document analysis, here are some key observations: The document appears to be a " + docType + ". " +
		summary + " For a complete understanding, please review the full extracted text and consult with a legal professional."
}

// LegalAssistant answers from a fixed table of general-information responses.
// It never calls an engine.
type LegalAssistant struct {
	logger domain.Logger
}

// NewLegalAssistant creates a new legal assistant
func NewLegalAssistant(logger domain.Logger) *LegalAssistant {
	return &LegalAssistant{logger: logger}
}

// Respond picks the first rule matching the lower-cased message.
func (a *LegalAssistant) Respond(req domain.LegalAssistantRequest) domain.LegalAssistantResponse {
	msg := strings.ToLower(req.Message)
	response := legalDefaultResponse
	for _, rule := range legalRules {
		if rule.match(msg) {
			response = rule.response(req.Context)
			break
		}
	}
	a.logger.Debug("Legal assistant responded", "history_len", len(req.History), "has_context", req.Context != nil)
	return domain.LegalAssistantResponse{
		Response:   response,
		Timestamp:  time.Now().UTC(),
		Disclaimer: LegalDisclaimer,
	}
}
