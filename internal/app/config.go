package app

import (
	"errors"
	"fmt"
)

// Output formats for the object summary.
const (
	OutputTable = "table"
	OutputYAML  = "yaml"
	OutputJSON  = "json"
)

// Dump formats for re-serialising a resolved document.
const (
	DumpXML = "xml"
	DumpHCL = "hcl"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DocPath string // a document, or a directory searched for documents

	LogFormat string
	LogLevel  string

	Output     string
	Dump       string
	All        bool // include imported and library objects in the summary
	NoValidate bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.DocPath == "" {
		return nil, errors.New("DocPath is a required configuration field and cannot be empty")
	}

	if cfg.Output == "" {
		cfg.Output = OutputTable
	}
	switch cfg.Output {
	case OutputTable, OutputYAML, OutputJSON:
	default:
		return nil, fmt.Errorf("unsupported output %q: must be 'table', 'yaml' or 'json'", cfg.Output)
	}

	switch cfg.Dump {
	case "", DumpXML, DumpHCL:
	default:
		return nil, fmt.Errorf("unsupported dump format %q: must be 'xml' or 'hcl'", cfg.Dump)
	}

	return &cfg, nil
}
