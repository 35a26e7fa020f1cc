package canvas

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Field is one of the fixed questions asked of the founder.
type Field int

const (
	FieldTargetCustomer Field = iota
	FieldCustomerProblem
	FieldProposedSolution
	FieldCompetitors
	FieldCoreTechnology
	FieldDifferentiation
	FieldMarketInfo
)

type fieldInfo struct {
	key      string
	name     string
	question string
	optional bool
}

var fieldTable = []fieldInfo{
	FieldTargetCustomer: {
		key:      "target_customer",
		name:     "Target customer",
		question: "[Customer segment] Who is the specific customer you want to deliver value to first?",
	},
	FieldCustomerProblem: {
		key:      "customer_problem",
		name:     "Customer problem",
		question: "[Problem] What is the most important problem that customer has?",
	},
	FieldProposedSolution: {
		key:      "proposed_solution",
		name:     "Proposed solution",
		question: "[Solution] How, concretely, does your technology or idea solve that problem?",
	},
	FieldCompetitors: {
		key:      "competitors",
		name:     "Competitors",
		question: "[Competitors] Which competing products or services, or workarounds, do customers use today?",
	},
	FieldCoreTechnology: {
		key:      "core_technology",
		name:     "Core technology",
		question: "[Solution / advantage] What technology or approach sits at the heart of the idea?",
		optional: true,
	},
	FieldDifferentiation: {
		key:      "differentiation",
		name:     "Differentiation",
		question: "[Unique value proposition / advantage] Compared with existing solutions and competitors, what makes your idea better and how?",
	},
	FieldMarketInfo: {
		key:      "market_info",
		name:     "Market info",
		question: "[Market] What do you know so far about the size or growth of the target market?",
		optional: true,
	},
}

// AllFields returns fields in form order.
func AllFields() []Field {
	out := make([]Field, len(fieldTable))
	for i := range fieldTable {
		out[i] = Field(i)
	}
	return out
}

func (f Field) valid() bool { return f >= 0 && int(f) < len(fieldTable) }

// String returns the display name used in prompts.
func (f Field) String() string {
	if !f.valid() {
		return "Unknown"
	}
	return fieldTable[f].name
}

// Key is the stable identifier used in forms, config and input files.
func (f Field) Key() string {
	if !f.valid() {
		return ""
	}
	return fieldTable[f].key
}

// Question is the prompt shown to the founder on the form.
func (f Field) Question() string {
	if !f.valid() {
		return ""
	}
	return fieldTable[f].question
}

// Optional reports whether the field may be left empty by design.
func (f Field) Optional() bool {
	return f.valid() && fieldTable[f].optional
}

// ParseField resolves a field key such as "customer_problem".
func ParseField(key string) (Field, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, "-", "_")
	for i, info := range fieldTable {
		if info.key == k {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown input field %q", key)
}

// DefaultRequired is the required set of the current form.
var DefaultRequired = []Field{
	FieldTargetCustomer,
	FieldCustomerProblem,
	FieldProposedSolution,
	FieldCompetitors,
	FieldDifferentiation,
}

// LegacyRequired is the earlier required set, without competitors.
var LegacyRequired = []Field{
	FieldTargetCustomer,
	FieldCustomerProblem,
	FieldProposedSolution,
	FieldDifferentiation,
}

// ParseFields resolves a list of field keys, preserving order and dropping duplicates.
func ParseFields(keys []string) ([]Field, error) {
	seen := make(map[Field]bool)
	var out []Field
	for _, k := range keys {
		f, err := ParseField(k)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// requiredPresets name whole required sets usable in place of field keys.
var requiredPresets = map[string][]Field{
	"default": DefaultRequired,
	"legacy":  LegacyRequired,
}

// ParseRequired resolves a required-field list. A single entry may name a
// preset ("default" or "legacy"); anything else is parsed as field keys.
func ParseRequired(keys []string) ([]Field, error) {
	if len(keys) == 1 {
		if preset, ok := requiredPresets[strings.ToLower(strings.TrimSpace(keys[0]))]; ok {
			return append([]Field(nil), preset...), nil
		}
	}
	return ParseFields(keys)
}

// InputRecord holds the founder's answers keyed by field.
type InputRecord map[Field]string

// Get returns the trimmed value for f.
func (r InputRecord) Get(f Field) string {
	return strings.TrimSpace(r[f])
}

// Clone returns a trimmed copy containing only known fields.
func (r InputRecord) Clone() InputRecord {
	out := make(InputRecord, len(r))
	for f, v := range r {
		if f.valid() {
			out[f] = strings.TrimSpace(v)
		}
	}
	return out
}

// InputRecordFromMap builds a record from key/value pairs, e.g. a submitted form.
func InputRecordFromMap(values map[string]string) (InputRecord, error) {
	rec := make(InputRecord, len(values))
	for k, v := range values {
		f, err := ParseField(k)
		if err != nil {
			return nil, err
		}
		rec[f] = v
	}
	return rec, nil
}

// ToMap converts the record back to field keys, including empty fields.
func (r InputRecord) ToMap() map[string]string {
	out := make(map[string]string, len(fieldTable))
	for _, f := range AllFields() {
		out[f.Key()] = r.Get(f)
	}
	return out
}

// LoadInputs reads an inputs YAML file mapping field keys to answers.
func LoadInputs(path string) (InputRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inputs: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing inputs: %w", err)
	}
	rec, err := InputRecordFromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing inputs: %w", err)
	}
	return rec, nil
}
