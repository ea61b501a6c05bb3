package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentID_Deterministic(t *testing.T) {
	a := DocumentID("algebra/quadratics", "lesson_plan")
	b := DocumentID("algebra/quadratics", "lesson_plan")
	assert.Equal(t, a, b)
}

func TestDocumentID_DistinctPerSubItem(t *testing.T) {
	plan := DocumentID("algebra/quadratics", "lesson_plan")
	exam := DocumentID("algebra/quadratics", "exam_questions")
	other := DocumentID("algebra/linear-equations", "lesson_plan")

	assert.NotEqual(t, plan, exam)
	assert.NotEqual(t, plan, other)
}

func TestDocumentID_SeparatorIsUnambiguous(t *testing.T) {
	// "a/b" + "c" must not collide with "a" + "b/c".
	assert.NotEqual(t, DocumentID("a/b", "c"), DocumentID("a", "b/c"))
}

func TestFingerprint_CanonicalizesJSON(t *testing.T) {
	a := Fingerprint([]byte(`{"title": "Fractions", "grade_level": "4"}`))
	b := Fingerprint([]byte(`{
		"grade_level": "4",
		"title":       "Fractions"
	}`))

	assert.Equal(t, a, b)
}

func TestFingerprint_DifferentContentDiffers(t *testing.T) {
	a := Fingerprint([]byte(`{"title": "Fractions"}`))
	b := Fingerprint([]byte(`{"title": "Decimals"}`))
	assert.NotEqual(t, a, b)
}

func TestFingerprint_NonJSONHashesRawBytes(t *testing.T) {
	svg := []byte("<svg><rect/></svg>")
	a := Fingerprint(svg)
	b := Fingerprint(svg)
	c := Fingerprint([]byte("<svg><circle/></svg>"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
	assert.Equal(t, strings.ToLower(a), a)
}
