package config

import (
	"fmt"
	"os"

	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

// aliasFile is the YAML layout of ALIAS_FILE:
//
//	aliases:
//	  ex-machina-2015: [ex-machina-2014]
//	  black-panther-2018: [black-panther]
type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadAliases reads the alias table at path. An empty path returns the
// built-in defaults.
func LoadAliases(path string) (domain.AliasTable, error) {
	if path == "" {
		return domain.DefaultAliases(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.AliasTable{}, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliases(b)
}

// ParseAliases decodes a YAML alias table.
func ParseAliases(b []byte) (domain.AliasTable, error) {
	var f aliasFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return domain.AliasTable{}, fmt.Errorf("decode alias file: %w", err)
	}
	return domain.NewAliasTable(f.Aliases)
}
