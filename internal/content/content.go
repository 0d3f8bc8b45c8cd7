// Package content decodes the static records shown on the page. The records are
// compiled into the binary and never change at runtime.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a content record with a missing required field.
var ErrInvalid = errors.New("invalid content")

//go:embed content.yaml
var embedded []byte

type Profile struct {
	Handle     string `yaml:"handle"`
	Accent     string `yaml:"accent"`
	Badge      string `yaml:"badge"`
	Avatar     string `yaml:"avatar"`
	Background string `yaml:"background"`
	Stack      string `yaml:"stack"`
}

type Skill struct {
	Title  string `yaml:"title"`
	Detail string `yaml:"detail"`
}

type Project struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
	Icon        string `yaml:"icon"`
}

type SocialLink struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Icon string `yaml:"icon"`
}

// Site is every static record of the page.
type Site struct {
	Profile  Profile      `yaml:"profile"`
	Skills   []Skill      `yaml:"skills"`
	Projects []Project    `yaml:"projects"`
	Social   []SocialLink `yaml:"social"`
	Audio    []string     `yaml:"audio"`

	About   template.HTML `yaml:"-"`
	Tagline template.HTML `yaml:"-"`
}

// Default decodes the records compiled into the binary.
func Default() (*Site, error) {
	return Parse(embedded)
}

// Parse decodes and validates raw YAML records.
func Parse(raw []byte) (*Site, error) {
	var s Site
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports the first record with a missing required field.
func (s *Site) Validate() error {
	if s.Profile.Handle == "" {
		return fmt.Errorf("%w: profile handle is empty", ErrInvalid)
	}
	for i, sk := range s.Skills {
		if sk.Title == "" || sk.Detail == "" {
			return fmt.Errorf("%w: skill %d needs a title and detail", ErrInvalid, i)
		}
	}
	for i, p := range s.Projects {
		if p.Title == "" || p.Link == "" {
			return fmt.Errorf("%w: project %d needs a title and link", ErrInvalid, i)
		}
	}
	for i, l := range s.Social {
		if l.Name == "" || l.URL == "" {
			return fmt.Errorf("%w: social link %d needs a name and url", ErrInvalid, i)
		}
	}
	for i, src := range s.Audio {
		if src == "" {
			return fmt.Errorf("%w: audio source %d is empty", ErrInvalid, i)
		}
	}
	return nil
}

// SetProse renders the about blurb and tagline from Markdown.
func (s *Site) SetProse(about, tagline string) error {
	var err error
	if s.About, err = Markdown(about); err != nil {
		return fmt.Errorf("render about: %w", err)
	}
	if s.Tagline, err = Markdown(tagline); err != nil {
		return fmt.Errorf("render tagline: %w", err)
	}
	return nil
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.Typographer),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Markdown renders src to HTML. Raw HTML in src is not passed through.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
