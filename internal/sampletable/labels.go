package sampletable

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"sqxedit/internal/faults"
)

// SampleType pairs the label stored in documents with the label shown to
// users.
type SampleType struct {
	Machine string
	Display string
}

var sampleTypes = []SampleType{
	{Machine: "Sample", Display: "Sample"},
	{Machine: "Blank", Display: "Blank"},
	{Machine: "DoubleBlank", Display: "Double blank"},
	{Machine: "Calibration", Display: "Cal. Std."},
	{Machine: "Control", Display: "QC check"},
	{Machine: "Spike", Display: "Spike"},
	{Machine: "SysSuitability", Display: "Sys. Suit."},
}

// SampleTypes returns the sample type domain in display order.
func SampleTypes() []SampleType {
	return append([]SampleType(nil), sampleTypes...)
}

// DisplayLabels returns the display labels in domain order.
func DisplayLabels() []string {
	out := make([]string, len(sampleTypes))
	for i, st := range sampleTypes {
		out[i] = st.Display
	}
	return out
}

// DisplayLabel returns the display label for a machine label. Labels outside
// the domain are returned unchanged.
func DisplayLabel(machine string) string {
	for _, st := range sampleTypes {
		if st.Machine == machine {
			return st.Display
		}
	}
	return machine
}

// MachineLabel returns the machine label for a display label. The machine
// label itself is accepted too. ok is false for labels outside the domain,
// in which case label is returned unchanged.
func MachineLabel(label string) (string, bool) {
	for _, st := range sampleTypes {
		if st.Display == label || st.Machine == label {
			return st.Machine, true
		}
	}
	return label, false
}

// ResolveSampleType maps user input to a display label. Matching ignores
// case, whitespace and punctuation, and accepts display or machine labels.
func ResolveSampleType(input string) (string, error) {
	key := labelKey(input)
	for _, st := range sampleTypes {
		if key == labelKey(st.Display) || key == labelKey(st.Machine) {
			return st.Display, nil
		}
	}
	return "", faults.Wrap(faults.ErrInvalidEdit, "sampletable", "sample type",
		fmt.Sprintf("%q is not one of %s", input, strings.Join(DisplayLabels(), ", ")), nil)
}

// labelKey folds case and drops everything but letters and digits.
func labelKey(s string) string {
	folded := cases.Fold().String(s)
	var sb strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 0x7f {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func matchChoice(input string, choices []string) (string, bool) {
	key := labelKey(input)
	for _, choice := range choices {
		if labelKey(choice) == key {
			return choice, true
		}
	}
	return "", false
}
