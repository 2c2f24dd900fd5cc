package core

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RuleEngine is the deterministic decision layer that runs before any model
// call. Rules are evaluated in a fixed order and the first match wins; all
// matching is lowercase substring containment, no tokenization or regex.
type RuleEngine struct {
	blockedSenders []string
	surveyPhrases  []string
	salesPhrases   []string
	logger         *zap.Logger
}

// NewRuleEngine creates a rule engine. Phrase lists are lowercased once at
// construction so evaluation is a plain substring check.
func NewRuleEngine(blockedSenders, surveyPhrases, salesPhrases []string, logger *zap.Logger) *RuleEngine {
	return &RuleEngine{
		blockedSenders: lowercaseAll(blockedSenders),
		surveyPhrases:  lowercaseAll(surveyPhrases),
		salesPhrases:   lowercaseAll(salesPhrases),
		logger:         logger,
	}
}

// Apply runs the rules against a message. A nil verdict means no rule fired
// and the caller must fall through to the model classifier.
func (e *RuleEngine) Apply(msg *Message) *Verdict {
	from := strings.ToLower(msg.From)
	for _, needle := range e.blockedSenders {
		if needle != "" && strings.Contains(from, needle) {
			e.logger.Debug("Sender block rule matched",
				zap.String("id", msg.ID),
				zap.String("needle", needle))
			return &Verdict{
				IsSpam: true,
				Reason: fmt.Sprintf("Sender matches %q block rule", needle),
			}
		}
	}

	subject := strings.ToLower(msg.Subject)
	snippet := strings.ToLower(msg.Snippet)
	for _, phrase := range e.surveyPhrases {
		if phrase != "" && (strings.Contains(subject, phrase) || strings.Contains(snippet, phrase)) {
			e.logger.Debug("Survey rule matched",
				zap.String("id", msg.ID),
				zap.String("phrase", phrase))
			return &Verdict{IsSpam: true, Reason: "Post-purchase survey / rating request"}
		}
	}

	combined := subject + " " + snippet
	for _, phrase := range e.salesPhrases {
		if phrase != "" && strings.Contains(combined, phrase) {
			e.logger.Debug("Solicitation rule matched",
				zap.String("id", msg.ID),
				zap.String("phrase", phrase))
			return &Verdict{IsSpam: true, Reason: "Sales outreach / booking language detected"}
		}
	}

	return nil
}

func lowercaseAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
