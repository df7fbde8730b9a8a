package semodel

// EntityID identifies a node in the systems-engineering graph
type EntityID string

// EntityKind enum
type EntityKind string

const (
	KindSystem EntityKind = "system"
	KindSD     EntityKind = "system_description"
	KindVR     EntityKind = "verification_requirement"
	KindVM     EntityKind = "verification_module"
)

// Relation enum for traceability edges
type Relation string

const (
	RelationDescribes Relation = "describes"
	RelationVerifies  Relation = "verifies"
	RelationSatisfies Relation = "satisfies"
)

// Threshold is a quantitative bound attached to a verification requirement,
// e.g. ">= 95 %"
type Threshold struct {
	Comparator string  `json:"comparator"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit,omitempty"`
}

// System is the root of a modeled hierarchy
type System struct {
	ID          EntityID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
}

// SystemDescription models one subsystem/behavior of a System
type SystemDescription struct {
	ID       EntityID `json:"id"`
	SystemID EntityID `json:"system_id"`
	Name     string   `json:"name"`
	Text     string   `json:"text,omitempty"`
}

// VerificationRequirement is a measurable condition an SD must satisfy.
// Exactly one SD per VR.
type VerificationRequirement struct {
	ID        EntityID   `json:"id"`
	SDID      EntityID   `json:"sd_id"`
	Text      string     `json:"text"`
	Threshold *Threshold `json:"threshold,omitempty"`
}

// VerificationModule is the method that checks a VR. Exactly one VR per VM.
type VerificationModule struct {
	ID        EntityID `json:"id"`
	VRID      EntityID `json:"vr_id"`
	Method    string   `json:"method"`
	Condition string   `json:"condition,omitempty"`
}

// TraceabilityLink is a directed edge in the graph
type TraceabilityLink struct {
	From     EntityID `json:"from"`
	To       EntityID `json:"to"`
	Relation Relation `json:"relation"`
}

// ExtractedParameter is one cell of a table mechanically extracted from the
// reference engineering document
type ExtractedParameter struct {
	TableID string `json:"table_id"`
	RowKey  string `json:"row_key"`
	Column  string `json:"column_name"`
	Value   string `json:"value"`
	Unit    string `json:"unit,omitempty"`
}

// NamedRef ties an entity name to the System that owns it
type NamedRef struct {
	Name     string   `json:"name"`
	SystemID EntityID `json:"system_id"`
}

// Subtree is a bounded traversal result rooted at a System: the SDs under it,
// the VRs under those, the VMs under those, plus the connecting links in
// graph order.
type Subtree struct {
	System       System                    `json:"system"`
	Descriptions []SystemDescription       `json:"descriptions"`
	Requirements []VerificationRequirement `json:"requirements"`
	Modules      []VerificationModule      `json:"modules"`
	Links        []TraceabilityLink        `json:"links"`
}
