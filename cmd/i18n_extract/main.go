// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command i18n_extract scans the module for translatable messages and writes
// the gettext template that translators start from.
//
// Run it from the module root:
//
//	go run ./cmd/i18n_extract -o assets/po/lingofe.pot
package main

import (
	"bytes"
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/tools/go/packages"

	"codeberg.org/lingofe/lingofe/config"
	"codeberg.org/lingofe/lingofe/core/audit"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

func main() {
	audit.SetDefaultLogger()

	outPath := flag.String("o", "assets/po/lingofe.pot", "output file")
	flag.Parse()

	wd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get working directory")
	}

	pkgs, err := packages.Load(&packages.Config{Mode: packages.LoadAllSyntax}, "./...")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load packages")
	}

	if packages.PrintErrors(pkgs) > 0 {
		log.Fatal().Msg("Packages have errors, fix them before extracting")
	}

	c := extract(pkgs, projectRoot(wd))

	var buf bytes.Buffer
	if err := writePOT(&buf, c, version(), time.Now()); err != nil {
		log.Fatal().Err(err).Msg("Failed to render template")
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), dirPerm); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	if err := os.WriteFile(*outPath, buf.Bytes(), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("Failed to write template")
	}

	log.Info().Str("path", *outPath).Int("messages", len(c)).Msg("Extracted messages")
}

// version prefers git describe and falls back to the release constant.
func version() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return config.BuildVersion
	}

	return strings.TrimSpace(string(out))
}

// projectRoot returns the nearest directory at or above wd holding go.mod.
func projectRoot(wd string) string {
	for dir := filepath.Clean(wd); ; {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}

		dir = parent
	}
}
