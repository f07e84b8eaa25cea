// Package persona loads the static background the twin answers from and
// renders the system prompts built on it.
package persona

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nidhishmalav/career-twin/twin/config"
)

// ErrNoName is returned when the persona has no name to act as.
var ErrNoName = errors.New("persona name is required")

// Context is the static background that conditions every model call.
// It is built once at startup and never mutated.
type Context struct {
	Name    string
	Summary string
	Profile string
}

// Load reads the summary text file and the profile PDF named by cfg.
func Load(cfg config.PersonaConfig) (Context, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return Context{}, ErrNoName
	}

	summary, err := os.ReadFile(cfg.SummaryPath)
	if err != nil {
		return Context{}, fmt.Errorf("failed to read summary %s: %w", cfg.SummaryPath, err)
	}

	profile, err := ReadProfilePDF(cfg.ProfilePDFPath)
	if err != nil {
		return Context{}, err
	}

	return Context{
		Name:    cfg.Name,
		Summary: string(summary),
		Profile: profile,
	}, nil
}

// ReadProfilePDF concatenates the plain text of every page, skipping pages with no text.
func ReadProfilePDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open profile %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d of %s: %w", i, path, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
