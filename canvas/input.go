package canvas

// ValidationResult is Accepted, or Rejected with the missing fields in form order.
type ValidationResult struct {
	Missing []Field
}

// Accepted reports whether every required field is present.
func (v ValidationResult) Accepted() bool { return len(v.Missing) == 0 }

// Err returns a *ValidationError for a rejected result, nil otherwise.
func (v ValidationResult) Err() error {
	if v.Accepted() {
		return nil
	}
	return &ValidationError{Missing: v.Missing}
}

// InputCollector checks a record against the configured required set.
type InputCollector struct {
	required map[Field]bool
}

// NewInputCollector uses DefaultRequired when required is empty.
func NewInputCollector(required []Field) *InputCollector {
	if len(required) == 0 {
		required = DefaultRequired
	}
	set := make(map[Field]bool, len(required))
	for _, f := range required {
		set[f] = true
	}
	return &InputCollector{required: set}
}

// Required returns the required fields in form order.
func (c *InputCollector) Required() []Field {
	var out []Field
	for _, f := range AllFields() {
		if c.required[f] {
			out = append(out, f)
		}
	}
	return out
}

// IsRequired reports whether f must be filled in.
func (c *InputCollector) IsRequired(f Field) bool { return c.required[f] }

// Validate has no side effects.
func (c *InputCollector) Validate(rec InputRecord) ValidationResult {
	var res ValidationResult
	for _, f := range c.Required() {
		if rec.Get(f) == "" {
			res.Missing = append(res.Missing, f)
		}
	}
	return res
}
