// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command genconfig writes example configuration files for every option of
// config.ClientConfig, using the default values.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/lingofe/lingofe/config"
	"codeberg.org/lingofe/lingofe/core/audit"
)

const (
	envOutputFile  = "deploy/.env.example"
	yamlOutputFile = "deploy/config.yaml.example"
	filePerm       = 0o644
	dirPerm        = 0o755

	envFileHeader = `# LingoFE configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# LingoFE configuration (via configuration file)
#
# Copy this file to config.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
	proxySettingsComment = `## Network proxy settings
## ref: https://pkg.go.dev/net/http#ProxyFromEnvironment
# HTTPS_PROXY=
# HTTP_PROXY=
`
)

// essentialEnv lists variables written uncommented.
var essentialEnv = map[string]bool{
	"LINGOFE_API_URL": true,
}

// essentialYAML lists keys written uncommented.
var essentialYAML = map[string]bool{
	"baseUrl:": true,
}

func main() {
	audit.SetDefaultLogger()

	cfg := &config.ClientConfig{}
	cfg.SetDefaults()

	yamlContent, err := renderYAML(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	write(envOutputFile, renderEnv(cfg))
	write(yamlOutputFile, yamlContent)
}

func write(path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to create output directory")
	}

	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write example file")
	}

	log.Info().Str("path", path).Msg("Generated example configuration")
}

// renderEnv lists every env-tagged option, one section per top-level field.
func renderEnv(cfg *config.ClientConfig) string {
	var sb strings.Builder

	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	for i := range typ.NumField() {
		section := val.Field(i)
		if section.Kind() != reflect.Struct || !typ.Field(i).IsExported() || typ.Field(i).Tag.Get("yaml") == "-" {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n", typ.Field(i).Name)

		for j := range section.NumField() {
			tag, ok := section.Type().Field(j).Tag.Lookup("env")
			if !ok {
				continue
			}

			sb.WriteString(envLine(strings.Split(tag, ",")[0], section.Field(j)))
		}

		sb.WriteString("\n")
	}

	sb.WriteString(proxySettingsComment)

	return sb.String()
}

// envLine renders name=value, commented out unless name is essential.
// Slices are joined with commas, as the loader splits them.
func envLine(name string, value reflect.Value) string {
	var rendered string

	switch {
	case value.Kind() == reflect.Slice:
		parts := make([]string, value.Len())
		for k := range value.Len() {
			parts[k] = fmt.Sprint(value.Index(k).Interface())
		}

		rendered = strings.Join(parts, ",")
	default:
		rendered = fmt.Sprint(value.Interface())
	}

	if essentialEnv[name] {
		return fmt.Sprintf("%s=%q\n", name, rendered)
	}

	return fmt.Sprintf("# %s=%s\n", name, rendered)
}

// renderYAML marshals cfg and comments out every option that is not essential.
func renderYAML(cfg *config.ClientConfig) (string, error) {
	var yamlContent strings.Builder

	if err := yaml.NewEncoder(&yamlContent, config.GetDurationEncoderOption(), yaml.Indent(2)).Encode(cfg); err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString(yamlFileHeader)

	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			continue
		case !strings.HasPrefix(line, " "):
			// Section header.
			fmt.Fprintf(&sb, "\n%s\n", line)
		case essentialYAML[strings.Fields(trimmed)[0]]:
			sb.WriteString(line + "\n")
		default:
			indent := len(line) - len(strings.TrimLeft(line, " "))
			fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indent), trimmed)
		}
	}

	return sb.String(), nil
}
