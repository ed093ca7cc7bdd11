package capabilities

import "gopkg.in/yaml.v3"

// ModelCapabilities describes what one model can do.
type ModelCapabilities struct {
	ID string `yaml:"-" json:"id"`

	DisplayName string `yaml:"display_name" json:"display_name"`

	SupportsVision bool `yaml:"supports_vision" json:"supports_vision"`
	SupportsTools  bool `yaml:"supports_tools" json:"supports_tools"`

	ContextWindow int `yaml:"context_window" json:"context_window"`
	MaxOutput     int `yaml:"max_output" json:"max_output"`
}

// ProviderCapabilities keeps models in YAML order.
type ProviderCapabilities struct {
	Provider string `yaml:"provider" json:"provider"`
	// VisionPatterns marks unlisted models as vision capable when their id
	// contains one of these substrings (local model tags vary a lot).
	VisionPatterns []string            `yaml:"vision_patterns" json:"vision_patterns,omitempty"`
	Models         []ModelCapabilities `yaml:"-" json:"models"`
}

func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	type plain struct {
		Provider       string                       `yaml:"provider"`
		VisionPatterns []string                     `yaml:"vision_patterns"`
		Models         map[string]ModelCapabilities `yaml:"models"`
	}
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	p.Provider = raw.Provider
	p.VisionPatterns = raw.VisionPatterns

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		for j := 0; j+1 < len(modelsNode.Content); j += 2 {
			id := modelsNode.Content[j].Value
			if m, ok := raw.Models[id]; ok {
				m.ID = id
				p.Models = append(p.Models, m)
			}
		}
		break
	}
	return nil
}
