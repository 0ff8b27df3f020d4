package diagnosis

import "sort"

// UnknownName is displayed for a code the directory does not contain.
const UnknownName = "unknown"

// Diagnosis is one code of the diagnosis taxonomy.
type Diagnosis struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Latin *string `json:"latin,omitempty"`
}

// Directory maps diagnosis codes to display names. It is built once and never
// mutated afterwards, so it is safe to share between goroutines.
type Directory struct {
	names map[string]string
	codes []string
}

// NewDirectory builds a directory from the full diagnosis list. Later
// duplicates of a code win.
func NewDirectory(list []Diagnosis) *Directory {
	d := &Directory{names: make(map[string]string, len(list))}
	for _, dx := range list {
		if _, ok := d.names[dx.Code]; !ok {
			d.codes = append(d.codes, dx.Code)
		}
		d.names[dx.Code] = dx.Name
	}
	sort.Strings(d.codes)
	return d
}

// Lookup returns the display name of code.
func (d *Directory) Lookup(code string) (string, bool) {
	if d == nil {
		return "", false
	}
	name, ok := d.names[code]
	return name, ok
}

// Name returns the display name of code, or UnknownName.
func (d *Directory) Name(code string) string {
	if name, ok := d.Lookup(code); ok {
		return name
	}
	return UnknownName
}

// Codes returns every code in the directory in sorted order.
func (d *Directory) Codes() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.codes))
	copy(out, d.codes)
	return out
}

// Len returns the number of codes in the directory.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.codes)
}
