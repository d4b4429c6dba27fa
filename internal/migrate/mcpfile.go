package migrate

import (
	"bytes"
	"fmt"

	yaml "go.yaml.in/yaml/v3"

	"github.com/conn-castle/mycelium/internal/messages"
)

// mcpEntry is the layer fragment written for a migrated MCP server.
type mcpEntry struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Source  string            `yaml:"source,omitempty"`
}

// mcpDocument is an mcps.yaml edited as a node tree so existing keys,
// ordering, and comments survive an append or removal.
type mcpDocument struct {
	root *yaml.Node
}

func parseMCPDocument(data []byte, path string) (*mcpDocument, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf(messages.MigrateMCPFileInvalidFmt, path)
	}
	return &mcpDocument{root: &doc}, nil
}

func (d *mcpDocument) mapping() *yaml.Node {
	return d.root.Content[0]
}

// lookup returns the value node for name.
func (d *mcpDocument) lookup(name string) *yaml.Node {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == name {
			return m.Content[i+1]
		}
	}
	return nil
}

// command decodes the command of an existing entry.
func (d *mcpDocument) command(name string) (string, bool) {
	node := d.lookup(name)
	if node == nil {
		return "", false
	}
	var entry mcpEntry
	if err := node.Decode(&entry); err != nil {
		return "", true
	}
	return entry.Command, true
}

func (d *mcpDocument) add(name string, entry mcpEntry) error {
	var value yaml.Node
	if err := value.Encode(entry); err != nil {
		return err
	}
	m := d.mapping()
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}, &value)
	return nil
}

func (d *mcpDocument) remove(name string) bool {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == name {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

func (d *mcpDocument) marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(d.root); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
