package conformance

// Suite is one YAML fixture file.
type Suite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Options     *Overrides `yaml:"options,omitempty"`
	Cases       []Case     `yaml:"cases"`
}

// Overrides adjusts the default compiler options for every case in a
// suite, or for a single case.
type Overrides struct {
	Unroll    *bool `yaml:"unroll,omitempty"`
	MaxUnroll *int  `yaml:"max_unroll,omitempty"`
	Validate  *bool `yaml:"validate,omitempty"`
}

// Case is a single program and what compiling it should produce.
type Case struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Skip        interface{}       `yaml:"skip,omitempty"` // bool or string
	Options     *Overrides        `yaml:"options,omitempty"`
	Source      string            `yaml:"source"`
	Includes    map[string]string `yaml:"includes,omitempty"` // name -> content
	Expect      Expectation       `yaml:"expect"`
}

// Expectation describes the outcome of compiling a case.
//
// With Error set the case must fail with that problem kind. Phase then
// names the stage that reports it: every earlier stage must succeed.
// Without Error the case must compile, and the dump of Phase (default
// llvmir) must contain every Contains string and none of Excludes.
type Expectation struct {
	Error    string   `yaml:"error,omitempty"`
	Phase    string   `yaml:"phase,omitempty"`
	Contains []string `yaml:"contains,omitempty"`
	Excludes []string `yaml:"excludes,omitempty"`
	Count    *Count   `yaml:"count,omitempty"`
	Errors   *int     `yaml:"errors,omitempty"` // size of the error table
}

// Count requires an exact number of occurrences of Text in the dump.
type Count struct {
	Text string `yaml:"text"`
	N    int    `yaml:"n"`
}

// IsSkipped reports whether the case is disabled and why.
func (c *Case) IsSkipped() (bool, string) {
	switch v := c.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		return true, v
	}
	return false, ""
}
