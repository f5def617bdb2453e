package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalBibTeX(t *testing.T) {
	out := Canonical().BibTeX()
	assert.Contains(t, out, "@misc{novotny2020text,")
	assert.Contains(t, out, "eprint = {2003.05019}")
	assert.Contains(t, out, "archiveprefix = {arXiv}")
	assert.Contains(t, out, "primaryclass = {cs.IR}")
	assert.Contains(t, out, "Novotný and Eniafe Festus Ayetiran")
}

func TestParse(t *testing.T) {
	e, err := Parse(Canonical().BibTeX())
	require.NoError(t, err)
	assert.Equal(t, "novotny2020text", e.Key)
	assert.Equal(t, "misc", e.Type)
	assert.Equal(t, "2020", e.Year)
	assert.Len(t, e.Authors, 4)
	assert.Equal(t, "Radim Řehůřek", e.Authors[3])
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("@misc{truncated,")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	require.NoError(t, Canonical().Verify())

	// A field the renderer drops must be reported as drift.
	broken := Canonical()
	broken.Title = "Mismatched {"
	assert.Error(t, broken.Verify())
}

func TestPlain(t *testing.T) {
	s := Canonical().Plain()
	assert.Contains(t, s, "arXiv:2003.05019")
	assert.Contains(t, s, "2020")
	assert.Contains(t, s, "https://arxiv.org/abs/2003.05019")
}
