// Package responder produces canned assistant replies. Implementations sit
// behind the Responder interface so a real model can replace them.
package responder

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
)

// Prompt is what the user sent plus the current selection.
type Prompt struct {
	Text    string
	Project string
	File    string
}

// Reply is the assistant's answer. OpenProjectForm asks the client to show
// the project details form.
type Reply struct {
	Text            string `json:"text"`
	OpenProjectForm bool   `json:"openProjectForm,omitempty"`
}

// Responder answers a prompt.
type Responder interface {
	Respond(ctx context.Context, p Prompt) (Reply, error)
}

// ContextPrefix names the selected project and file ahead of a reply.
func ContextPrefix(project, file string) string {
	switch {
	case project != "" && file != "":
		return "Based on your " + project + " project and " + file + " file, "
	case project != "":
		return "For your " + project + " project, "
	case file != "":
		return "Looking at your " + file + " file, "
	}
	return ""
}

// TemplateResponder picks one of the catalog templates at random and ignores
// the prompt text.
type TemplateResponder struct {
	templates []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplateResponder creates a template responder. A nil rng uses the
// global source.
func NewTemplateResponder(c *Catalog, rng *rand.Rand) *TemplateResponder {
	return &TemplateResponder{templates: c.Templates, rng: rng}
}

func (r *TemplateResponder) Respond(ctx context.Context, p Prompt) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	body := r.templates[r.pick(len(r.templates))]
	return Reply{Text: ContextPrefix(p.Project, p.File) + body}, nil
}

func (r *TemplateResponder) pick(n int) int {
	if r.rng == nil {
		return rand.IntN(n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// KeywordResponder answers project-setup messages by keyword.
type KeywordResponder struct {
	set KeywordSet
}

// NewKeywordResponder creates a keyword responder.
func NewKeywordResponder(c *Catalog) *KeywordResponder {
	return &KeywordResponder{set: c.Keywords}
}

func (r *KeywordResponder) Respond(ctx context.Context, p Prompt) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	text := strings.ToLower(p.Text)

	for _, trigger := range r.set.FormTriggers {
		if strings.Contains(text, trigger) {
			return Reply{Text: r.set.FormReply, OpenProjectForm: true}, nil
		}
	}
	for _, rule := range r.set.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return Reply{Text: rule.Reply}, nil
			}
		}
	}
	return Reply{Text: r.set.Fallback}, nil
}

var (
	_ Responder = (*TemplateResponder)(nil)
	_ Responder = (*KeywordResponder)(nil)
)
