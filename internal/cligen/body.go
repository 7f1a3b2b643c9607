package cligen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type bodyFlags struct {
	yamlFile       *string
	jsonFile       *string
	skipValidation *bool
}

func bindBodyFlags(cmd *cobra.Command) *bodyFlags {
	b := &bodyFlags{
		yamlFile:       new(string),
		jsonFile:       new(string),
		skipValidation: new(bool),
	}
	cmd.Flags().StringVarP(b.yamlFile, "yaml", "y", "", "request body as YAML file, '-' for stdin")
	cmd.Flags().StringVarP(b.jsonFile, "json", "j", "", "request body as JSON file, '-' for stdin")
	cmd.Flags().BoolVar(b.skipValidation, "skip-validation", false, "send the body without checking it against the schema")
	cmd.MarkFlagsMutuallyExclusive("yaml", "json")
	return b
}

// load reads and decodes the payload. ok is false when neither -y nor -j
// was given.
func (b *bodyFlags) load(stdin io.Reader) (payload any, ok bool, err error) {
	src := strings.TrimSpace(*b.yamlFile)
	if j := strings.TrimSpace(*b.jsonFile); j != "" {
		if src != "" {
			return nil, false, errors.New("provide json OR yaml input")
		}
		src = j
	}
	if src == "" {
		return nil, false, nil
	}

	raw, err := readInput(src, stdin)
	if err != nil {
		return nil, false, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false, fmt.Errorf("request body %s is empty", displayName(src))
	}
	// JSON documents are valid YAML, so one decoder serves both flags.
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return nil, false, fmt.Errorf("parse request body %s: %w", displayName(src), err)
	}
	return payload, true, nil
}

func readInput(src string, stdin io.Reader) ([]byte, error) {
	if src == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return b, nil
}

func displayName(src string) string {
	if src == "-" {
		return "from stdin"
	}
	return src
}

func encodeBody(payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return b, nil
}
