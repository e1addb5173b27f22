package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	prevNoColor := color.NoColor
	color.NoColor = true

	var out, errOut bytes.Buffer
	restore := SetOutput(&out, &errOut)
	t.Cleanup(func() {
		restore()
		color.NoColor = prevNoColor
	})
	return &out, &errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		_, errOut := capture(t)

		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		require.Contains(t, errOut.String(), "This is a test error")
		require.NotContains(t, errOut.String(), "Either:")
	})

	t.Run("prints a single suggestion without numbering", func(t *testing.T) {
		_, errOut := capture(t)

		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		require.Contains(t, errOut.String(), "\nTry this fix\n")
		require.NotContains(t, errOut.String(), "1.")
	})

	t.Run("numbers multiple suggestions", func(t *testing.T) {
		_, errOut := capture(t)

		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Equal(t, "Test Error", err.Error())
		require.Contains(t, errOut.String(), "Either:")
		require.Contains(t, errOut.String(), "  1. First option")
		require.Contains(t, errOut.String(), "  2. Second option")
	})
}

func TestErrorWithContext(t *testing.T) {
	t.Run("prints context in key order", func(t *testing.T) {
		_, errOut := capture(t)

		context := map[string]string{
			"Redis":    "redis://localhost:6379",
			"Instance": "test-instance",
		}
		err := ErrorWithContext("Test Error", "Explanation", context, nil)
		require.Equal(t, "Test Error", err.Error())

		output := errOut.String()
		require.Less(t, strings.Index(output, "Instance:"), strings.Index(output, "Redis:"))
	})

	t.Run("skips empty explanation", func(t *testing.T) {
		_, errOut := capture(t)

		err := ErrorWithContext("Test Error", "", map[string]string{"Key": "Value"}, []string{"Fix it"})
		require.Equal(t, "Test Error", err.Error())
		require.Equal(t, "Test Error\n\n\n  Key: Value\n\nFix it\n", errOut.String())
	})
}

func TestPrefixes(t *testing.T) {
	out, _ := capture(t)

	Success("done\n")
	Success("✓ already prefixed\n")
	Warning("careful\n")
	Step("next\n")

	output := out.String()
	require.Contains(t, output, "✓ done\n")
	require.Contains(t, output, "✓ already prefixed\n")
	require.NotContains(t, output, "✓ ✓")
	require.Contains(t, output, "⚠️  careful\n")
	require.Contains(t, output, "→ next\n")
}
