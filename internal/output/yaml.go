package output

import (
	"gopkg.in/yaml.v3"

	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
)

type yamlFormatter struct{}

func (yamlFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	return marshalYAML(orEmpty(d))
}

func (yamlFormatter) FormatScript(s *migration.Script) (string, error) {
	return marshalYAML(scriptPayload(s))
}

func marshalYAML(payload any) (string, error) {
	b, err := yaml.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
