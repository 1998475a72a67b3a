// Package validator accumulates human-readable input errors. Handlers embed
// a Validator in their input struct, run every rule, and flush the collected
// messages as one failed-validation response instead of stopping at the
// first problem.
package validator

type Validator struct {
	Errors []string `json:",omitempty"`
}

func (v Validator) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *Validator) AddError(message string) {
	v.Errors = append(v.Errors, message)
}

// Check records message when ok is false.
func (v *Validator) Check(ok bool, message string) {
	if !ok {
		v.AddError(message)
	}
}
