package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestChainedLevelCalls(t *testing.T) {
	var buf bytes.Buffer
	prev := SetWriter(&buf)
	defer Restore(prev)

	// Level methods chain directly off L(), as every call site does.
	L().Warn().Str("field", "value").Msg("warned")
	L().Error().Msg("errored")
	L().Debug().Msg("debugged")

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"field":"value"`,
		`"level":"error"`,
		"warned", "errored", "debugged",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestRestore(t *testing.T) {
	var first, second bytes.Buffer
	prev := SetWriter(&first)
	defer Restore(prev)

	SetWriter(&second)
	L().Error().Msg("to second")
	Restore(prev)

	if !strings.Contains(second.String(), "to second") {
		t.Errorf("redirected output missing: %s", second.String())
	}
	if first.String() != "" {
		t.Errorf("first buffer should be untouched, got: %s", first.String())
	}
}
