/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package report

import (
	"fmt"
	"strings"

	"github.com/inventario/credvault/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultExportPath is where exported reports are written when none is configured.
const DefaultExportPath = "data/security_report.txt"

var recommendations = []string{
	"Migrate every plain-text record to the hashed format (credvault migrate).",
	"Use passwords of at least 12 characters mixing upper and lower case letters, digits and symbols.",
	"Restrict read access to the credential file and to exported reports.",
	"Review this report after every bulk import of users.",
}

// Config represents report configuration.
type Config struct {
	ExportPath string
	Language   language.Tag
}

type configProxyType struct {
	ExportPath string `yaml:"export_path"`
	Language   string `yaml:"language"`
}

// DefaultConfig returns the default report configuration.
func DefaultConfig() Config {
	return Config{ExportPath: DefaultExportPath, Language: language.English}
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxyType{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*c = DefaultConfig()
	if len(p.ExportPath) > 0 {
		c.ExportPath = p.ExportPath
	}
	if len(p.Language) > 0 {
		tag, err := language.Parse(p.Language)
		if err != nil {
			return fmt.Errorf("report.Config: unrecognized language: %s", p.Language)
		}
		c.Language = tag
	}
	return nil
}

// Reporter renders security reports.
type Reporter struct {
	p *message.Printer
}

// New returns a reporter formatting numbers according to cfg.Language.
func New(cfg *Config) *Reporter {
	tag := language.English
	if cfg != nil && cfg.Language != language.Und {
		tag = cfg.Language
	}
	return &Reporter{p: message.NewPrinter(tag)}
}

// Render returns the report of lines formatted with the default configuration.
func Render(lines []string) string {
	return New(nil).Render(lines)
}

// Render returns the security report of lines: an aggregate block, one block per user in
// encounter order and a fixed recommendations footer.
func (r *Reporter) Render(lines []string) string {
	var sb strings.Builder

	st := Compute(lines)
	sb.WriteString("=== CREDENTIAL SECURITY REPORT ===\n\n")
	sb.WriteString("Summary\n")
	r.field(&sb, 2, "Total users", r.p.Sprintf("%d", st.Total))
	r.field(&sb, 2, "Plain-text records", r.p.Sprintf("%d", st.PlainText))
	r.field(&sb, 2, "Hashed records", r.p.Sprintf("%d", st.Hashed))
	r.field(&sb, 2, "Hashed percentage", r.p.Sprintf("%.1f%%", st.HashedPercentage))
	r.field(&sb, 2, "Recommendation", string(st.Recommendation))

	sb.WriteString("\nUser details\n")
	details := Details(lines)
	if len(details) == 0 {
		sb.WriteString("  (no users)\n")
	}
	for _, d := range details {
		sb.WriteString("  [" + d.Username + "]\n")
		switch d.Format {
		case model.PlainText:
			r.field(&sb, 4, "Format", "PLAIN TEXT")
			r.field(&sb, 4, "Security level", string(d.Level))
			r.field(&sb, 4, "Password", d.Password+" (VISIBLE - security risk)")
			r.field(&sb, 4, "Strength", d.Strength.String())
			r.field(&sb, 4, "Crack score", r.p.Sprintf("%d/4", d.CrackScore))
		case model.Hashed:
			r.field(&sb, 4, "Format", "HASHED (SHA-256 + salt)")
			r.field(&sb, 4, "Security level", string(d.Level))
			r.field(&sb, 4, "Hash", d.DigestPrefix)
			r.field(&sb, 4, "Salt", d.SaltPrefix)
		}
	}

	sb.WriteString("\nRecommendations\n")
	for _, rec := range recommendations {
		sb.WriteString("  - " + rec + "\n")
	}
	return sb.String()
}

func (r *Reporter) field(sb *strings.Builder, indent int, label, value string) {
	sb.WriteString(fmt.Sprintf("%s%-20s %s\n", strings.Repeat(" ", indent), label+":", value))
}
