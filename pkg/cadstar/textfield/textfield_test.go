package textfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"", ""},
		{"<@DESIGN TITLE@>", "${TITLE}"},
		{"Sheet <@SHEET_NUMBER@> of <@NUM_OF_SHEETS@>", "Sheet ${#} of ${##}"},
		{"<@COMPANY_NAME@> - <@DATE@>", "${COMPANY} - ${CURRENT_DATE}"},
		{"<@SHEET_NAME@>", "${SHEETNAME}"},
		{"rev <@REVISION@>", "rev ${REVISION}"},
		{"a < b <@ open", "a < b <@ open"},
	}
	for _, tt := range tests {
		got, err := Translate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFields(t *testing.T) {
	names, err := Fields("<@DESIGN TITLE@>: <@SHEET_NAME@>")
	require.NoError(t, err)
	assert.Equal(t, []string{"DESIGN TITLE", "SHEET_NAME"}, names)
}
