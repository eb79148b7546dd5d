package tags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		rules []Rule
	}{
		{"simple", "hello", nil},
		{"single char", "x", nil},
		{"exactly 30", strings.Repeat("a", 30), nil},
		{"cyrillic 30", strings.Repeat("ж", 30), nil},
		{"empty", "", []Rule{RuleNameEmpty}},
		{"space", "two words", []Rule{RuleNameWhitespace}},
		{"tab", "a\tb", []Rule{RuleNameWhitespace}},
		{"newline", "a\nb", []Rule{RuleNameWhitespace}},
		{"nbsp", "a b", []Rule{RuleNameWhitespace}},
		{"31 chars", "valid30charslongtagname12345678", []Rule{RuleNameTooLong}},
		{"long with space", strings.Repeat("a", 30) + " b", []Rule{RuleNameWhitespace, RuleNameTooLong}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.rules == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.rules, verr.Rules)
		})
	}
}

func TestValidateText(t *testing.T) {
	assert.NoError(t, ValidateText("World"))
	assert.NoError(t, ValidateText(strings.Repeat("я", MaxTextLen)))
	assert.NoError(t, ValidateText("with spaces\nand lines"))

	var verr *ValidationError
	require.ErrorAs(t, ValidateText(strings.Repeat("a", MaxTextLen+1)), &verr)
	assert.True(t, verr.Has(RuleTextTooLong))

	require.ErrorAs(t, ValidateText(""), &verr)
	assert.True(t, verr.Has(RuleTextEmpty))
}

func TestValidationErrorCode(t *testing.T) {
	err := ValidateName("a b")
	require.Error(t, err)
	assert.Equal(t, "validation", err.(*ValidationError).Code())
	assert.Contains(t, err.Error(), "name_whitespace")
}
