package fields

import "strings"

// EmploymentKind is the canonical employment bucket a value classified into.
type EmploymentKind int

const (
	EmploymentNone EmploymentKind = iota
	EmploymentFullTime
	EmploymentPartTime
	EmploymentContract
	EmploymentPerDiem
	EmploymentTemporary
	EmploymentOther
)

var employmentLabels = map[EmploymentKind]string{
	EmploymentFullTime:  "Full-time",
	EmploymentPartTime:  "Part-time",
	EmploymentContract:  "Contract",
	EmploymentPerDiem:   "PRN/Per Diem",
	EmploymentTemporary: "Temporary",
}

type employmentRule struct {
	kind  EmploymentKind
	terms []string
}

// Rule order matters: "ft" is checked before "pt", "contract" before "temp".
var employmentRules = []employmentRule{
	{EmploymentFullTime, []string{"full", "ft"}},
	{EmploymentPartTime, []string{"part", "pt"}},
	{EmploymentContract, []string{"contract"}},
	{EmploymentPerDiem, []string{"prn", "per diem"}},
	{EmploymentTemporary, []string{"temp"}},
}

// EmploymentType is a classified employment-type value.
type EmploymentType struct {
	Kind     EmploymentKind
	Original string
}

// ClassifyEmployment applies substring rules case-insensitively; the first
// matching rule wins and unmatched input is kept as EmploymentOther.
func ClassifyEmployment(raw string) EmploymentType {
	result := EmploymentType{Original: raw}
	if strings.TrimSpace(raw) == "" {
		return result
	}
	value := strings.ToLower(raw)
	for _, rule := range employmentRules {
		for _, term := range rule.terms {
			if strings.Contains(value, term) {
				result.Kind = rule.kind
				return result
			}
		}
	}
	result.Kind = EmploymentOther
	return result
}

// Matched reports whether a canonical rule applied.
func (e EmploymentType) Matched() bool {
	_, ok := employmentLabels[e.Kind]
	return ok
}

func (e EmploymentType) String() string {
	if label, ok := employmentLabels[e.Kind]; ok {
		return label
	}
	if e.Kind == EmploymentOther {
		return e.Original
	}
	return ""
}
