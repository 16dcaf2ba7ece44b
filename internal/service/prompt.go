package service

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/medassist/internal/domain"
)

const (
	DefaultAssistantName = "Pots-EDS-Experten"
	DefaultReplyLanguage = "Swedish"

	// DefaultDisclaimer closes every answer.
	DefaultDisclaimer = "Observera: Jag är en AI och inte en läkare. Informationen ersätter inte medicinsk rådgivning, rådgör alltid med vårdpersonal."

	// GenerationErrorTemplate is the answer shown when the model call fails.
	GenerationErrorTemplate = "Ett fel uppstod när svaret skulle genereras: %s"

	noLocalContext = "No local knowledge available."
	noWebContext   = "No live web results available."
)

// PromptConfig configures the persona of the assistant.
type PromptConfig struct {
	AssistantName string
	ReplyLanguage string
	Disclaimer    string
}

func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		AssistantName: DefaultAssistantName,
		ReplyLanguage: DefaultReplyLanguage,
		Disclaimer:    DefaultDisclaimer,
	}
}

// PromptInput is everything an answer prompt is built from.
type PromptInput struct {
	Query      string
	Segments   []domain.RetrievedSegment
	WebResults []domain.WebResult
}

// PromptComposer renders deterministic instruction blocks for the model.
type PromptComposer struct {
	cfg PromptConfig
}

func NewPromptComposer(cfg PromptConfig) *PromptComposer {
	def := DefaultPromptConfig()
	if cfg.AssistantName == "" {
		cfg.AssistantName = def.AssistantName
	}
	if cfg.ReplyLanguage == "" {
		cfg.ReplyLanguage = def.ReplyLanguage
	}
	if cfg.Disclaimer == "" {
		cfg.Disclaimer = def.Disclaimer
	}
	return &PromptComposer{cfg: cfg}
}

func (c *PromptComposer) Disclaimer() string {
	return c.cfg.Disclaimer
}

// ComposeAnswerPrompt builds the prompt used to answer a user question.
func (c *PromptComposer) ComposeAnswerPrompt(in PromptInput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are %s, a medical research assistant specialised in Ehlers-Danlos syndrome (EDS), "+
		"postural orthostatic tachycardia syndrome (POTS) and mast cell activation syndrome (MCAS). "+
		"Only answer within this domain and say so when a question falls outside it.\n\n", c.cfg.AssistantName)

	sb.WriteString("USER QUESTION:\n")
	sb.WriteString(strings.TrimSpace(in.Query))
	sb.WriteString("\n\n")

	sb.WriteString("LOCAL KNOWLEDGE FROM RESEARCH DOCUMENTS:\n")
	writeLocalContext(&sb, in.Segments)
	sb.WriteString("\n")

	sb.WriteString("LIVE WEB RESULTS:\n")
	writeWebContext(&sb, in.WebResults)
	sb.WriteString("\n")

	sb.WriteString("INSTRUCTIONS:\n")
	fmt.Fprintf(&sb, "1. Reply in %s, in a professional and pedagogical tone.\n", c.cfg.ReplyLanguage)
	sb.WriteString("2. Prioritise reputable sources such as PubMed, The Lancet and Mayo Clinic.\n")
	sb.WriteString("3. Clearly separate what comes from the local knowledge from what comes from the live web results.\n")
	sb.WriteString("4. Cite the source URL and the publish date, when one is given, for every web result you use.\n")
	sb.WriteString("5. If the sources contradict each other, say so.\n")
	fmt.Fprintf(&sb, "6. End the answer with exactly this sentence: %q\n", c.cfg.Disclaimer)

	return sb.String()
}

// ComposeDigestPrompt builds the prompt for the latest-updates digest.
func (c *PromptComposer) ComposeDigestPrompt(results []domain.WebResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are %s. Summarise the most important recent news about Ehlers-Danlos syndrome (EDS) "+
		"and POTS based on the information below.\n\n", c.cfg.AssistantName)

	sb.WriteString("INFORMATION:\n")
	writeWebContext(&sb, results)
	sb.WriteString("\n")

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("1. Give a short summary of the most important findings.\n")
	sb.WriteString("2. For every item, state the publish date when available and a clear source reference (URL).\n")
	sb.WriteString("3. Be strictly source-critical. Prefer medical institutions and trusted scientific sources.\n")
	sb.WriteString("4. If no relevant new information is found, say so.\n")
	fmt.Fprintf(&sb, "5. Reply in %s.\n", c.cfg.ReplyLanguage)
	fmt.Fprintf(&sb, "6. End the answer with exactly this sentence: %q\n", c.cfg.Disclaimer)

	return sb.String()
}

// EnsureDisclaimer appends the disclaimer when the model left it out.
func (c *PromptComposer) EnsureDisclaimer(answer string) string {
	answer = strings.TrimSpace(answer)
	if strings.HasSuffix(answer, c.cfg.Disclaimer) {
		return answer
	}
	if answer == "" {
		return c.cfg.Disclaimer
	}
	return answer + "\n\n" + c.cfg.Disclaimer
}

func writeLocalContext(sb *strings.Builder, segments []domain.RetrievedSegment) {
	if len(segments) == 0 {
		sb.WriteString(noLocalContext)
		sb.WriteString("\n")
		return
	}
	for i, s := range segments {
		fmt.Fprintf(sb, "[%d] source: %s\n%s\n", i+1, s.SourceFile, strings.TrimSpace(s.Text))
	}
}

func writeWebContext(sb *strings.Builder, results []domain.WebResult) {
	if len(results) == 0 {
		sb.WriteString(noWebContext)
		sb.WriteString("\n")
		return
	}
	for i, r := range results {
		fmt.Fprintf(sb, "[%d] %s\n", i+1, r.Title)
		fmt.Fprintf(sb, "URL: %s\n", r.URL)
		if r.HasPublishedDate() {
			fmt.Fprintf(sb, "Published: %s\n", r.PublishedDate)
		}
		fmt.Fprintf(sb, "Content: %s\n", strings.TrimSpace(r.Content))
	}
}
