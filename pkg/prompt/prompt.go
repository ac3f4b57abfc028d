// Package prompt loads .prompt files: YAML frontmatter followed by a
// text/template body, separated by "---" lines.
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Config holds metadata from the YAML frontmatter.
type Config struct {
	Model       string                 `yaml:"model"`
	Temperature float32                `yaml:"temperature"`
	Input       map[string]interface{} `yaml:"input"`
}

// Prompt represents a loaded prompt with config and template.
type Prompt struct {
	Config   Config
	Template *template.Template
}

// Parse parses prompt content, typically embedded with go:embed.
func Parse(data []byte) (*Prompt, error) {
	parts := strings.SplitN(string(data), "---", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid prompt format: missing frontmatter delimiters")
	}

	frontmatter := parts[1]
	body := parts[2]

	var config Config
	if err := yaml.Unmarshal([]byte(frontmatter), &config); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	tmpl, err := template.New("prompt").Parse(strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template body: %w", err)
	}

	return &Prompt{
		Config:   config,
		Template: tmpl,
	}, nil
}

// Load reads a .prompt file from disk and parses it.
func Load(path string) (*Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	return Parse(data)
}

// Execute applies data to the template and returns the result string.
func (p *Prompt) Execute(data any) (string, error) {
	var buf bytes.Buffer
	if err := p.Template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
