package plugins

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/conn-castle/mycelium/internal/messages"
)

const (
	yamlTagStr  = "!!str"
	yamlTagNull = "!!null"
)

var (
	errNoFrontMatter   = errors.New(messages.PluginFrontMatterMissing)
	errOpenFrontMatter = errors.New(messages.PluginFrontMatterOpen)
)

type frontMatter struct {
	name        *string
	description *string
}

// readFrontMatter extracts name and description from a markdown file that
// starts with a --- delimited YAML block.
func readFrontMatter(data []byte) (frontMatter, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "---" {
		return frontMatter{}, errNoFrontMatter
	}
	var lines []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return frontMatter{}, err
	}
	if !closed {
		return frontMatter{}, errOpenFrontMatter
	}
	return parseFrontMatter(strings.Join(lines, "\n"))
}

func parseFrontMatter(content string) (frontMatter, error) {
	var out frontMatter
	if strings.TrimSpace(content) == "" {
		return out, nil
	}
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return out, err
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return out, errors.New(messages.PluginFrontMatterMapping)
	}
	mapping := root.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := strings.TrimSpace(mapping.Content[i].Value)
		value := mapping.Content[i+1]
		switch key {
		case "name":
			parsed, err := parseScalarString(value, key)
			if err != nil {
				return out, err
			}
			out.name = parsed
		case "description":
			parsed, err := parseScalarString(value, key)
			if err != nil {
				return out, err
			}
			out.description = parsed
		}
	}
	return out, nil
}

func parseScalarString(node *yaml.Node, field string) (*string, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf(messages.PluginFrontMatterFieldFmt, field)
	}
	if node.Tag == yamlTagNull {
		return nil, nil
	}
	if node.Tag != "" && node.Tag != yamlTagStr {
		return nil, fmt.Errorf(messages.PluginFrontMatterFieldFmt, field)
	}
	value := strings.TrimSpace(node.Value)
	return &value, nil
}
