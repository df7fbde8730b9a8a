package prompt

// Section markers the reasoning model is instructed to emit. The synthesizer
// locates these verbatim in the raw answer; missing markers trigger the
// deterministic graph-derived fallback for that section.
const (
	MarkerDesign       = "=== System Design ==="
	MarkerRequirements = "=== Verification Requirements ==="
	MarkerTraceability = "=== Traceability ==="
	MarkerConditions   = "=== Verification Conditions ==="
)

// Markers in output order
func Markers() [4]string {
	return [4]string{MarkerDesign, MarkerRequirements, MarkerTraceability, MarkerConditions}
}

// SystemPrompt provides the fixed instruction header describing the four
// required output sections.
func SystemPrompt() string {
	return `You are a senior systems engineer. Answer the user's question using ONLY the supplied graph facts and document parameters; do not invent entities, requirement ids, or numeric thresholds that are not present in the facts.

Produce plain text (no markdown code fences) organized into exactly four sections, each introduced by its marker line verbatim:

` + MarkerDesign + `
A practical design narrative: purpose, scope, architecture, and key interfaces of the systems under discussion.

` + MarkerRequirements + `
The verification requirements relevant to the question, one per line, each tied to the system description it verifies. Quote quantitative thresholds exactly as given.

` + MarkerTraceability + `
A short prose summary of how requirements trace to descriptions and verification modules. Do not fabricate links.

` + MarkerConditions + `
Formal or testable conditions for each verification module, stated as comparator/value/unit checks where thresholds exist.

Every marker line must appear exactly once, in this order.`
}
