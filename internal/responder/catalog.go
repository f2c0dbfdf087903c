package responder

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog holds every canned assistant text.
type Catalog struct {
	Greetings       map[string]string `yaml:"greetings"`
	Templates       []string          `yaml:"templates"`
	Keywords        KeywordSet        `yaml:"keywords"`
	Acknowledgments map[string]string `yaml:"acknowledgements"`
	ProjectCreated  map[string]string `yaml:"project_created"`
	ProjectAttached string            `yaml:"project_attached"`
}

// KeywordSet drives the keyword responder.
type KeywordSet struct {
	FormTriggers []string      `yaml:"form_triggers"`
	FormReply    string        `yaml:"form_reply"`
	Rules        []KeywordRule `yaml:"rules"`
	Fallback     string        `yaml:"fallback"`
}

// KeywordRule maps any of its keywords to a reply.
type KeywordRule struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

// ParseCatalog decodes and checks a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing response catalog: %w", err)
	}
	if len(c.Templates) == 0 {
		return nil, errors.New("response catalog has no templates")
	}
	if c.Keywords.Fallback == "" {
		return nil, errors.New("response catalog has no keyword fallback")
	}
	for i, r := range c.Keywords.Rules {
		if len(r.Keywords) == 0 || r.Reply == "" {
			return nil, fmt.Errorf("keyword rule %d is incomplete", i)
		}
	}
	return &c, nil
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
})

// DefaultCatalog returns the embedded catalog. It panics if the embedded
// file is malformed, which is a build defect.
func DefaultCatalog() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic(err)
	}
	return c
}

// Greeting returns the opening message for a chat surface, or "".
func (c *Catalog) Greeting(surface string) string {
	return c.Greetings[surface]
}

// Acknowledgement returns the reply posted after n files of the given intake
// profile were accepted, or "" when the profile has none.
func (c *Catalog) Acknowledgement(profile string, n int) string {
	return render(c.Acknowledgments[profile], n, "")
}

// ProjectCreatedMessage confirms a new project on the given surface.
func (c *Catalog) ProjectCreatedMessage(surface, name string) string {
	msg, ok := c.ProjectCreated[surface]
	if !ok {
		msg = c.ProjectCreated["general-chat"]
	}
	return render(msg, 0, name)
}

// ProjectAttachedMessage confirms that an existing project joined a chat.
func (c *Catalog) ProjectAttachedMessage(name string) string {
	return render(c.ProjectAttached, 0, name)
}

func render(s string, count int, name string) string {
	if s == "" {
		return ""
	}
	return strings.NewReplacer("{count}", strconv.Itoa(count), "{name}", name).Replace(s)
}
