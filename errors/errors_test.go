package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDiff,
				Kind:   KindTypeMismatch,
				Path:   []string{"Root", "CreatureList", "0"},
				Detail: "want Int, got Dword",
				Offset: -1,
			},
			contains: []string{"[diff]", "type_mismatch", `Root\CreatureList\0`, "want Int, got Dword"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindOutOfBounds,
				Offset: -1,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with offset",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindTruncated,
				Detail: "input ends inside label table",
				Offset: 56,
			},
			contains: []string{"[decode]", "truncated", "offset 56", "label table"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseScript,
				Kind:   KindInvalidData,
				Detail: "bad instruction",
				Cause:  errors.New("underlying error"),
				Offset: -1,
			},
			contains: []string{"[script]", "invalid_data", "bad instruction", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseDecode, KindInvalidData, cause, "context")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestError_Is(t *testing.T) {
	a := Truncated(PhaseDecode, 10, "struct table")
	b := Truncated(PhaseDecode, 99, "field table")
	c := InvalidMagic(PhaseDecode, []byte("XXXX"))

	if !errors.Is(a, b) {
		t.Error("errors with same phase and kind should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different kind should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseApply, KindNotFound).
		Path("Root", "ItemList").
		Detail("no field %q", "ItemList").
		Value("ItemList").
		Cause(cause).
		Build()

	if err.Phase != PhaseApply || err.Kind != KindNotFound {
		t.Errorf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if len(err.Path) != 2 {
		t.Errorf("expected 2 path segments, got %d", len(err.Path))
	}
	if err.Detail != `no field "ItemList"` {
		t.Errorf("unexpected detail: %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wired through builder")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if e := LabelTooLong(PhaseEncode, "AVeryLongLabelIndeed"); e.Kind != KindLabelTooLong {
		t.Errorf("LabelTooLong kind = %s", e.Kind)
	}
	if e := UnknownFieldType(PhaseDecode, 42, 128); e.Offset != 128 {
		t.Errorf("UnknownFieldType offset = %d", e.Offset)
	}
	if e := UnresolvedToken(PhaseApply, 7); !strings.Contains(e.Error(), "#7") {
		t.Errorf("UnresolvedToken message = %q", e.Error())
	}
	if e := OutOfBounds(PhaseApply, []string{"CreatureList"}, 9, 4); !strings.Contains(e.Error(), "index 9") {
		t.Errorf("OutOfBounds message = %q", e.Error())
	}
}
