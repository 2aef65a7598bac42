package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	assert.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestExtractSymptomsFunctionDefinition(t *testing.T) {
	body, err := fs.ReadFile(files, "sql/000001_extract_symptoms.up.sql")
	require.NoError(t, err)
	sql := string(body)
	assert.Contains(t, sql, "FUNCTION extract_symptoms(input_text text)")
	assert.Contains(t, sql, "RETURNS TABLE (symptom_id varchar, symptom_name varchar)")
}

func TestUpRejectsBadURL(t *testing.T) {
	_, err := Up("notadriver://nowhere")
	assert.Error(t, err)
}
