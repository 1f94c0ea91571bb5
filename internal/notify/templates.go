// Package notify composes and delivers import confirmation messages.
package notify

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/importer"
)

//go:embed templates.yaml
var defaultTemplates []byte

const fallbackTemplate = "Saved {saved} new places to your trip."

type templateFile struct {
	Templates []string `yaml:"templates"`
}

// LoadTemplates reads the template list from path, or the built-in list when
// path is empty.
func LoadTemplates(path string) ([]string, error) {
	data := defaultTemplates
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("notify.LoadTemplates: %w", err)
		}
		data = b
	}
	return parseTemplates(data)
}

func parseTemplates(data []byte) ([]string, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("notify.parseTemplates: %w", err)
	}
	out := make([]string, 0, len(f.Templates))
	for _, t := range f.Templates {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("notify.parseTemplates: no templates defined")
	}
	return out, nil
}

// SelectTemplate picks one template using rng. The same seed always picks the
// same template. Returns "" for an empty list.
func SelectTemplate(rng *rand.Rand, templates []string) string {
	if len(templates) == 0 {
		return ""
	}
	return templates[rng.IntN(len(templates))]
}

// Compose renders a confirmation message for s.
func Compose(s importer.Summary, template string) string {
	if template == "" {
		template = fallbackTemplate
	}
	msg := strings.NewReplacer(
		"{saved}", strconv.Itoa(s.SavedCount),
		"{skipped}", strconv.Itoa(s.SkippedDuplicateCount),
		"{failed}", strconv.Itoa(s.FailedCount),
		"{total}", strconv.Itoa(s.Total()),
	).Replace(template)
	if s.FailedCount > 0 {
		msg += fmt.Sprintf(" (%d couldn't be saved.)", s.FailedCount)
	}
	return msg
}
