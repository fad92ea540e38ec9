package sanitize

import (
	"regexp"

	"SocialPulse/internal/domain"
)

const (
	emailPlaceholder = "[EMAIL_REDACTED]"
	phonePlaceholder = "[PHONE_REDACTED]"
)

var (
	emailExpr = regexp.MustCompile(`\b[\w._%+-]+@[\w.-]+\.[A-Za-z]{2,}\b`)

	phoneExprs = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.]?\d{4}\b`),
		regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{1,4}[-.\s]?\d{1,4}[-.\s]?\d{1,9}\b`),
		regexp.MustCompile(`\b\d{10,15}\b`),
	}
)

// Text replaces email addresses and phone numbers with placeholders before
// the content leaves the process.
func Text(text string) string {
	if text == "" {
		return text
	}

	text = emailExpr.ReplaceAllString(text, emailPlaceholder)
	for _, expr := range phoneExprs {
		text = expr.ReplaceAllString(text, phonePlaceholder)
	}
	return text
}

// Post returns a copy of the post with title and text redacted.
func Post(post domain.Post) domain.Post {
	post.Title = Text(post.Title)
	post.Text = Text(post.Text)
	return post
}

// Comments returns redacted copies of the given comments.
func Comments(comments []domain.Comment) []domain.Comment {
	cleaned := make([]domain.Comment, len(comments))
	for i, c := range comments {
		c.Body = Text(c.Body)
		cleaned[i] = c
	}
	return cleaned
}

// Clean reports whether no email or phone pattern remains in text.
func Clean(text string) bool {
	if text == "" {
		return true
	}
	if emailExpr.MatchString(text) {
		return false
	}
	for _, expr := range phoneExprs {
		if expr.MatchString(text) {
			return false
		}
	}
	return true
}
