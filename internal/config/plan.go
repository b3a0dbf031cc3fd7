package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/law-makers/nepafeed/internal/pipeline"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// FileOptions are run settings a plan file may carry under "options".
// Unset keys leave the built-in defaults alone.
type FileOptions struct {
	BaseURL    string            `yaml:"baseUrl" json:"baseUrl"`
	APIPath    string            `yaml:"apiPath" json:"apiPath"`
	SearchPath string            `yaml:"searchPath" json:"searchPath"`
	OutputDir  string            `yaml:"outputDir" json:"outputDir"`
	FeedTitle  string            `yaml:"feedTitle" json:"feedTitle"`
	FeedLink   string            `yaml:"feedLink" json:"feedLink"`
	Mode       string            `yaml:"mode" json:"mode"`
	Browser    bool              `yaml:"browser" json:"browser"`
	CSV        bool              `yaml:"csv" json:"csv"`
	DOMWait    string            `yaml:"domWait" json:"domWait"`
	Timeout    string            `yaml:"timeout" json:"timeout"`
	RPS        float64           `yaml:"rps" json:"rps"`
	Burst      int               `yaml:"burst" json:"burst"`
	UserAgent  string            `yaml:"userAgent" json:"userAgent"`
	Proxy      string            `yaml:"proxy" json:"proxy"`
	ChromePath string            `yaml:"chromePath" json:"chromePath"`
	LogLevel   string            `yaml:"logLevel" json:"logLevel"`
	Headers    map[string]string `yaml:"headers" json:"headers"`
}

// PlanFile is the on-disk search plan.
type PlanFile struct {
	pipeline.Plan `yaml:",inline"`
	Options       FileOptions `yaml:"options" json:"options"`
}

// ReadPlanFile parses path and, when present, merges a sibling
// "<name>.local.<ext>" over it. YAML is used for .yaml/.yml, JSON5 for
// everything else.
func ReadPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	plan := &PlanFile{}
	if err := decodePlan(path, data, plan); err != nil {
		return nil, fmt.Errorf("parse plan file %s: %w", path, err)
	}

	localPath := LocalOverridePath(path)
	localData, err := os.ReadFile(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return plan, nil
		}
		return nil, fmt.Errorf("read plan override: %w", err)
	}

	var override PlanFile
	if err := decodePlan(localPath, localData, &override); err != nil {
		return nil, fmt.Errorf("parse plan override %s: %w", localPath, err)
	}
	if err := mergo.Merge(plan, override, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge plan override: %w", err)
	}
	return plan, nil
}

// LocalOverridePath returns the ".local" sibling of a plan file path.
func LocalOverridePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func decodePlan(path string, data []byte, out *PlanFile) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("file is empty")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	default:
		return json5.Unmarshal(data, out)
	}
}
