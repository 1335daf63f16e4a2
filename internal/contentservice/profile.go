package contentservice

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"gopkg.in/yaml.v3"
)

const profileDir = "profile"

type ContactKind int

const (
	ContactAbsent ContactKind = iota
	ContactInfo
	ContactText
)

// ContactDetails is the structured form of a contact block.
type ContactDetails struct {
	Email    string `yaml:"email" json:"email,omitempty"`
	GitHub   string `yaml:"github" json:"github,omitempty"`
	LinkedIn string `yaml:"linkedin" json:"linkedin,omitempty"`
	Website  string `yaml:"website" json:"website,omitempty"`
}

// Contact is decided once at load time. Exactly one of Info or Text is set, according to Kind.
type Contact struct {
	Kind ContactKind
	Info *ContactDetails
	Text string
}

func (c *Contact) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		var info ContactDetails
		if err := value.Decode(&info); err != nil {
			return err
		}
		*c = Contact{Kind: ContactInfo, Info: &info}
	case yaml.ScalarNode:
		if value.Tag == "!!null" || value.Value == "" {
			*c = Contact{Kind: ContactAbsent}
			return nil
		}
		*c = Contact{Kind: ContactText, Text: value.Value}
	default:
		return fmt.Errorf("contact: unsupported yaml node at line %d", value.Line)
	}
	return nil
}

func (c Contact) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ContactInfo:
		return json.Marshal(struct {
			Kind string          `json:"kind"`
			Info *ContactDetails `json:"info"`
		}{"info", c.Info})
	case ContactText:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			Text string `json:"text"`
		}{"text", c.Text})
	default:
		return []byte(`{"kind":"absent"}`), nil
	}
}

type CareerKind int

const (
	CareerAbsent CareerKind = iota
	CareerEntries
	CareerText
)

type CareerEntry struct {
	Period      string `yaml:"period" json:"period"`
	Company     string `yaml:"company" json:"company"`
	Role        string `yaml:"role" json:"role"`
	Description string `yaml:"description" json:"description,omitempty"`
}

type Career struct {
	Kind    CareerKind
	Entries []CareerEntry
	Text    string
}

func (c *Career) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var entries []CareerEntry
		if err := value.Decode(&entries); err != nil {
			return err
		}
		*c = Career{Kind: CareerEntries, Entries: entries}
	case yaml.ScalarNode:
		if value.Tag == "!!null" || value.Value == "" {
			*c = Career{Kind: CareerAbsent}
			return nil
		}
		*c = Career{Kind: CareerText, Text: value.Value}
	default:
		return fmt.Errorf("career: unsupported yaml node at line %d", value.Line)
	}
	return nil
}

func (c Career) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CareerEntries:
		return json.Marshal(struct {
			Kind    string        `json:"kind"`
			Entries []CareerEntry `json:"entries"`
		}{"entries", c.Entries})
	case CareerText:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			Text string `json:"text"`
		}{"text", c.Text})
	default:
		return []byte(`{"kind":"absent"}`), nil
	}
}

type Profile struct {
	Locale    Locale  `yaml:"-" json:"locale"`
	Title     string  `yaml:"title" json:"title"`
	Biography string  `yaml:"biography" json:"biography"`
	Career    Career  `yaml:"career" json:"career"`
	Contact   Contact `yaml:"contact" json:"contact"`
}

func parseProfile(src []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(src, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// readProfiles loads profile-<locale>.yaml for each locale, falling back to profile.yaml.
func (r *Repository) readProfiles() map[Locale]*Profile {
	profiles := make(map[Locale]*Profile)

	for _, locale := range SupportedLocales {
		candidates := []string{
			path.Join(profileDir, "profile-"+string(locale)+".yaml"),
			path.Join(profileDir, "profile.yaml"),
		}

		for _, name := range candidates {
			src, err := fs.ReadFile(r.fsys, name)
			if err != nil {
				continue
			}

			p, err := parseProfile(src)
			if err != nil {
				r.logger.Warn("skipping malformed profile", slog.String("path", name), slog.Any("error", err))
				continue
			}

			p.Locale = locale
			profiles[locale] = p
			break
		}
	}

	return profiles
}

// Profile returns the profile for locale or nil when none was found.
func (r *Repository) Profile(locale Locale) *Profile {
	return r.current().profiles[locale]
}
