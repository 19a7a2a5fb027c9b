package sampletable

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"sqxedit/internal/faults"
)

// UseMethod is shown in place of an empty volume.
const UseMethod = "Use Method"

// Volume is an injection volume. The zero value means the acquisition
// method's default volume. The text of a set volume is kept as written so
// "10" stays "10".
type Volume struct {
	text    string
	value   decimal.Decimal
	numeric bool
}

// ParseVolume reads user input. Empty input and UseMethod (any case) select
// the method default; anything else must be a decimal number.
func ParseVolume(text string) (Volume, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || labelKey(trimmed) == labelKey(UseMethod) {
		return Volume{}, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Volume{}, faults.Wrap(faults.ErrInvalidEdit, "sampletable", "volume",
			fmt.Sprintf("%q is not a number", text), err)
	}
	return Volume{text: trimmed, value: value, numeric: true}, nil
}

// documentVolume wraps a stored value. Text that is not a number is kept
// verbatim rather than rejected.
func documentVolume(text string) Volume {
	if text == "" {
		return Volume{}
	}
	if v, err := ParseVolume(text); err == nil && v.text == text {
		return v
	}
	return Volume{text: text}
}

// VolumeOf returns a volume holding value.
func VolumeOf(value decimal.Decimal) Volume {
	return Volume{text: value.String(), value: value, numeric: true}
}

// IsMethodDefault reports whether the volume defers to the method.
func (v Volume) IsMethodDefault() bool { return v.text == "" }

// Text is the stored form: empty for the method default.
func (v Volume) Text() string { return v.text }

// String is the display form.
func (v Volume) String() string {
	if v.IsMethodDefault() {
		return UseMethod
	}
	return v.text
}

// Decimal returns the numeric value when the volume is a number.
func (v Volume) Decimal() (decimal.Decimal, bool) {
	return v.value, v.numeric
}
