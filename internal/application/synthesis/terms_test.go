package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyConceptsDropsStopwordsAndKeepsBigrams(t *testing.T) {
	got := keyConcepts("List the verification requirements for the pump system")

	assert.Contains(t, got, "pump")
	assert.Contains(t, got, "pump system")
	assert.Contains(t, got, "verification requirements")
	assert.NotContains(t, got, "the")
	assert.NotContains(t, got, "for")
}

func TestKeyConceptsDeterministic(t *testing.T) {
	a := keyConcepts("flow rate of the PumpSystem under load")
	b := keyConcepts("flow rate of the PumpSystem under load")
	assert.Equal(t, a, b)
}

func TestKeyConceptsEmptyPrompt(t *testing.T) {
	assert.Empty(t, keyConcepts(""))
	assert.Empty(t, keyConcepts("the of and"))
}

func TestDetectTableRef(t *testing.T) {
	assert.Equal(t, "pump_specs", detectTableRef("use the values in table pump_specs please"))
	assert.Equal(t, "T1", detectTableRef("Table T1 has the data"))
	assert.Equal(t, "", detectTableRef("no reference here"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("PumpSystem", "pumpsystem"))
	assert.Greater(t, similarity("the pump system flow", "PumpSystem"), similarity("unrelated words entirely", "PumpSystem"))
	assert.Equal(t, 0.0, similarity("", "PumpSystem"))
}
