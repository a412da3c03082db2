// Package config parses robotpath configuration files.
//
// The format is the familiar section-based printer config style:
//
//	[robot]
//	geometry_a1: 500          # comment
//	tool_offset: 0, 0, 230
//
//	[pump]
//	curve:
//	    0, 0, 0
//	    10, 146, 1
//	    90, 456, 10
//
// Indented lines continue the preceding option, which is how multi-row
// values such as pump curve samples are expressed.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"robotpath/pkg/errors"
)

// Config provides access to a parsed configuration file.
type Config struct {
	sections map[string]*Section
	order    []string
}

// New creates a new empty Config.
func New() *Config {
	return &Config{
		sections: make(map[string]*Section),
	}
}

// Load reads a configuration file and returns a Config.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValidation, fmt.Sprintf("invalid path %s", path))
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValidation, fmt.Sprintf("unable to open %s", path))
	}
	defer f.Close()

	c := New()
	if err := c.parse(bufio.NewScanner(f), path); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses configuration data from a string.
func LoadString(data string) (*Config, error) {
	c := New()
	if err := c.parse(bufio.NewScanner(strings.NewReader(data)), "<string>"); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parse(scanner *bufio.Scanner, path string) error {
	var currentSection string
	var currentOptions map[string]string
	var lastOption string

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Text()
		line := strings.TrimRight(raw, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// Strip comments.
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = strings.TrimRight(line[:idx], " \t")
			if strings.TrimSpace(line) == "" {
				continue
			}
		}

		// Continuation line: indented content extends the previous option.
		if line[0] == ' ' || line[0] == '\t' {
			if currentSection == "" || lastOption == "" {
				return errors.New(errors.ErrConfigValidation,
					fmt.Sprintf("unexpected continuation at line %d in %s", lineNum, path))
			}
			cont := strings.TrimSpace(line)
			if currentOptions[lastOption] == "" {
				currentOptions[lastOption] = cont
			} else {
				currentOptions[lastOption] += "\n" + cont
			}
			continue
		}

		// Section header.
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}
			header := strings.TrimSpace(line[1 : len(line)-1])
			if header == "" {
				return errors.New(errors.ErrConfigValidation,
					fmt.Sprintf("empty section header at line %d in %s", lineNum, path))
			}
			currentSection = header
			currentOptions = make(map[string]string)
			lastOption = ""
			continue
		}

		if currentSection == "" {
			return errors.New(errors.ErrConfigValidation,
				fmt.Sprintf("option before first section at line %d in %s", lineNum, path))
		}

		// key: value or key = value
		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			kv = strings.SplitN(line, "=", 2)
		}
		if len(kv) != 2 {
			return errors.New(errors.ErrConfigValidation,
				fmt.Sprintf("malformed line %d in %s: %q", lineNum, path, line))
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		if key == "" {
			return errors.New(errors.ErrConfigValidation,
				fmt.Sprintf("empty option name at line %d in %s", lineNum, path))
		}
		currentOptions[key] = strings.TrimSpace(kv[1])
		lastOption = key
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrConfigValidation, fmt.Sprintf("read error in %s", path))
	}
	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}
	return nil
}

func (c *Config) addSection(name string, options map[string]string) {
	key := strings.ToLower(name)
	if existing, ok := c.sections[key]; ok {
		// Later sections with the same name merge over earlier ones.
		for k, v := range options {
			existing.options[k] = v
		}
		return
	}
	c.sections[key] = newSection(name, options)
	c.order = append(c.order, key)
}

// HasSection checks if a section exists.
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[strings.ToLower(name)]
	return ok
}

// GetSection returns a section by name.
func (c *Config) GetSection(name string) (*Section, error) {
	s, ok := c.sections[strings.ToLower(name)]
	if !ok {
		return nil, errors.ConfigSectionError(name)
	}
	return s, nil
}

// SectionNames returns all section names in file order.
func (c *Config) SectionNames() []string {
	names := make([]string, 0, len(c.order))
	for _, key := range c.order {
		names = append(names, c.sections[key].name)
	}
	return names
}
