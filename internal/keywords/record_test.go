package keywords

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseJSONRecord(t *testing.T) {
	t.Parallel()

	record, err := Parse([]byte(`{"unique_id": "abc", "name": "backend.pdf", "clean_data": "python django", ` +
		`"extracted_keywords": ["python", "django", "rest api"], "keyterms": [["python", 0.4]]}`))
	require.NoError(t, err)

	assert.Equal(t, "abc", record.UniqueID)
	assert.Equal(t, "backend.pdf", record.Name)
	assert.Equal(t, Document{"python", "django", "rest api"}, record.Keywords)
	assert.Len(t, record.Keyterms, 1)
	assert.Equal(t, "python django rest api", record.Keywords.Text())
}

func TestParseYAMLRecord(t *testing.T) {
	t.Parallel()

	record, err := Parse([]byte("extracted_keywords:\n  - golang\n  - kubernetes\n"))
	require.NoError(t, err)
	assert.Equal(t, Document{"golang", "kubernetes"}, record.Keywords)
}

func TestParseEmptyKeywordList(t *testing.T) {
	t.Parallel()

	record, err := Parse([]byte(`{"extracted_keywords": []}`))
	require.NoError(t, err)
	assert.NotNil(t, record.Keywords)
	assert.Empty(t, record.Keywords)
}

func TestParseRepeatedKeyKeepsLastValue(t *testing.T) {
	t.Parallel()

	record, err := Parse([]byte(`{"extracted_keywords":["python"],"extracted_keywords":["go"]}`))
	require.NoError(t, err)
	assert.Equal(t, Document{"go"}, record.Keywords)

	record, err = Parse([]byte("name: first\nname: second\nextracted_keywords: [a]\nextracted_keywords: [b, c]\n"))
	require.NoError(t, err)
	assert.Equal(t, "second", record.Name)
	assert.Equal(t, Document{"b", "c"}, record.Keywords)
}

func TestParseNullDocumentIsMissingKeywords(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("null\n"))
	assert.ErrorIs(t, err, ErrMissingKeywords)
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		missing bool
	}{
		{name: "missing keywords", input: `{"name": "x"}`, missing: true},
		{name: "keywords not a list", input: `{"extracted_keywords": "python"}`, missing: true},
		{name: "keywords not strings", input: `{"extracted_keywords": [1, 2]}`, missing: true},
		{name: "empty document", input: ``, missing: true},
		{name: "not an object", input: `["python"]`},
		{name: "invalid syntax", input: `{"extracted_keywords": [`},
		{name: "bad optional field", input: `{"extracted_keywords": [], "name": ["x"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tc.input))
			require.Error(t, err)

			var malformed *MalformedInputError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tc.missing, errorsIsMissing(err))
		})
	}
}

func TestLoadRecordAddsPath(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "broken.json", `{"name": "x"}`)

	_, err := LoadRecord(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKeywords)
	assert.Contains(t, err.Error(), path)
}

func TestListRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{}`)
	writeFile(t, dir, "a.yaml", `{}`)
	writeFile(t, dir, "notes.txt", "skip")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c.json"), 0o755))

	files, err := ListRecords(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.json")}, files)

	_, err = ListRecords(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestRoleName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "JobDescription-backend", RoleName("Data/Processed/JobDescription/JobDescription-backend.pdf83a1.json"))
	assert.Equal(t, "devops", RoleName("devops"))
	assert.Equal(t, "", RoleName(".hidden"))
}

func errorsIsMissing(err error) bool {
	return errors.Is(err, ErrMissingKeywords)
}
