package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "resource error",
			code:    CodeResourceLoad,
			wantMsg: "Page resource failed to load",
			wantCat: CategoryResource,
		},
		{
			name:    "denied operation",
			code:    CodeDeniedOperation,
			wantMsg: "Operation not available in this environment",
			wantCat: CategoryEnvironment,
		},
		{
			name:    "unknown error code",
			code:    "P999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	cause := stderrors.New("boom")
	err := fmt.Errorf("mount: %w", New(CodeResourceLoad).WithDetail(`resource "x"`).Wrap(cause))

	if !Is(err, ErrResourceLoad) {
		t.Fatal("expected ErrResourceLoad to match")
	}
	if Is(err, ErrRender) {
		t.Fatal("ErrRender must not match a resource error")
	}
	if !Is(err, cause) {
		t.Fatal("wrapped cause should be reachable")
	}
	if got := CodeOf(err); got != CodeResourceLoad {
		t.Errorf("CodeOf = %q, want %q", got, CodeResourceLoad)
	}
}

func TestErrorString(t *testing.T) {
	err := New(CodeMissingContainer).WithDetailf("id=%q", "page").Wrap(stderrors.New("nil"))
	s := err.Error()
	for _, want := range []string{"P003", "Page container not found", `id="page"`, ": nil"} {
		if !strings.Contains(s, want) {
			t.Errorf("Error() = %q, missing %q", s, want)
		}
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeRender) != nil {
		t.Fatal("FromError(nil) should be nil")
	}

	coded := New(CodeDeniedOperation)
	if got := FromError(fmt.Errorf("x: %w", coded), CodeRender); got != coded {
		t.Errorf("FromError should keep existing code, got %v", got)
	}

	plain := stderrors.New("plain")
	got := FromError(plain, CodeRender)
	if got.Code != CodeRender || got.Wrapped != plain {
		t.Errorf("FromError(plain) = %+v", got)
	}
}

func TestLookup(t *testing.T) {
	tmpl, ok := Lookup(CodeStateKeyDenied)
	if !ok {
		t.Fatal("expected registered template")
	}
	if tmpl.Category != CategoryState {
		t.Errorf("Category = %q", tmpl.Category)
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("unexpected template for unknown code")
	}
}
