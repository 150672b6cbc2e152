package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/eyewear-digest/internal/news"
)

// Publication pairs a publication name with a list of strings: feed URLs in
// feeds.yaml, site domains in sites.yaml.
type Publication struct {
	Name   string
	Values []string
}

// PublicationList is a mapping from publication name to a string list that
// keeps the order of the file.
//
//	Vision Monday:
//	  - https://www.visionmonday.com/rss/frame-collections/
//	Eyestylist: [https://eyestylist.com/feed/]
type PublicationList []Publication

func (l *PublicationList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of publication to list", node.Line)
	}

	out := make(PublicationList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var values []string
		switch val.Kind {
		case yaml.SequenceNode:
			if err := val.Decode(&values); err != nil {
				return fmt.Errorf("publication %q: %w", key.Value, err)
			}
		case yaml.ScalarNode:
			if val.Tag != "!!null" && strings.TrimSpace(val.Value) != "" {
				values = []string{val.Value}
			}
		default:
			return fmt.Errorf("publication %q (line %d): expected a list", key.Value, val.Line)
		}

		cleaned := values[:0]
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				cleaned = append(cleaned, v)
			}
		}
		out = append(out, Publication{Name: strings.TrimSpace(key.Value), Values: cleaned})
	}

	*l = out
	return nil
}

// Names returns publication names in file order.
func (l PublicationList) Names() []string {
	names := make([]string, 0, len(l))
	for _, p := range l {
		names = append(names, p.Name)
	}
	return names
}

// LoadPublications reads a publication list. A missing file yields an empty
// list; so does an unreadable or malformed one, with a warning, since a bad
// optional file should not stop the monthly run.
func LoadPublications(path string, log *slog.Logger) PublicationList {
	var list PublicationList
	if !loadOptionalYAML(path, &list, log) {
		return PublicationList{}
	}
	return list
}

// LoadKeywords reads the keyword file with the same missing/malformed policy.
func LoadKeywords(path string, log *slog.Logger) news.Keywords {
	var kw news.Keywords
	if !loadOptionalYAML(path, &kw, log) {
		return news.Keywords{}
	}
	return kw
}

// loadOptionalYAML decodes path into out and reports whether out holds
// usable data. JSON files work too since JSON is valid YAML.
func loadOptionalYAML(path string, out interface{}, log *slog.Logger) bool {
	if log == nil {
		log = slog.Default()
	}
	if path == "" {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("config file not found, using empty configuration", "path", path)
		} else {
			log.Warn("config file unreadable, using empty configuration", "path", path, "error", err)
		}
		return false
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(out); err != nil {
		if !errors.Is(err, io.EOF) {
			log.Warn("config file malformed, using empty configuration", "path", path, "error", err)
		}
		return false
	}
	return true
}
