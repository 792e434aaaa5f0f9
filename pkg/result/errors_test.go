package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestErrors_ConcatDoesNotAlias(t *testing.T) {
	a := From(NotFound("efi", nil))
	b := From(IO("df", nil))

	merged := a.Concat(b)
	_ = merged.Concat(From(Malformed("cpuinfo", nil)))

	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("inputs were modified: a=%d b=%d", a.Len(), b.Len())
	}
	if merged.Len() != 2 {
		t.Errorf("expected 2 errors, got %d", merged.Len())
	}
}

func TestErrors_ConcatKeepsDuplicates(t *testing.T) {
	e := NotFound("efi", nil)
	merged := From(e).Concat(From(e))
	if merged.Len() != 2 {
		t.Errorf("expected duplicates to be kept, got %d errors", merged.Len())
	}
}

func TestErrors_ErrorsIsCopy(t *testing.T) {
	c := From(NotFound("efi", nil))
	list := c.Errors()
	list[0] = IO("other", nil)
	if c.Errors()[0].Key != "efi" {
		t.Error("Errors() must return an independent copy")
	}
}

func TestErrors_MarshalJSON(t *testing.T) {
	c := From(NotFound("efi", nil)).Concat(From(Malformed("cpuinfo", fmt.Errorf("%w: no processor entries", ErrMalformed))))

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var body []map[string]string
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(body))
	}
	if body[0]["kind"] != "not_found" || body[0]["key"] != "efi" {
		t.Errorf("unexpected first entry %v", body[0])
	}
	if !strings.Contains(body[0]["message"], "efi") {
		t.Errorf("message should name the probe, got %q", body[0]["message"])
	}
	if body[1]["message"] != "cpuinfo: malformed data: no processor entries" {
		t.Errorf("unexpected second message %q", body[1]["message"])
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{NotFound("efi", nil), "efi: not found"},
		{IO("df", errors.New("statfs /: permission denied")), "df: i/o failure: statfs /: permission denied"},
		{Malformed("session", errors.New("not a JSON object")), "session: malformed data: not a JSON object"},
		{Encoding("", nil), "encoding failed"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestClassify(t *testing.T) {
	var syntaxErr error = &json.SyntaxError{}
	_, marshalErr := json.Marshal(math.NaN())

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"missing file", &fs.PathError{Op: "open", Path: "/proc/x", Err: os.ErrNotExist}, KindNotFound},
		{"missing command", &exec.Error{Name: "smartctl", Err: exec.ErrNotFound}, KindNotFound},
		{"json syntax", fmt.Errorf("decode: %w", syntaxErr), KindMalformed},
		{"sentinel", fmt.Errorf("%w: bad line", ErrMalformed), KindMalformed},
		{"unsupported value", marshalErr, KindEncoding},
		{"generic", errors.New("boom"), KindIO},
		{"already classified", NotFound("other", nil), KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("probe", tt.err)
			if got.Kind != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got.Kind)
			}
		})
	}
}

func TestClassify_KeepsExistingKey(t *testing.T) {
	orig := Malformed("session", nil)
	got := Classify("chromium", orig)
	if got != orig {
		t.Errorf("expected the classified error to be returned as is, got %v", got)
	}
	got = Classify("chromium", &Error{Kind: KindNotFound})
	if got.Key != "chromium" {
		t.Errorf("expected key chromium, got %q", got.Key)
	}
}

func TestClassify_KeepsWrappingContext(t *testing.T) {
	inner := NotFound("chromium", fmt.Errorf("open prefs: %w", os.ErrNotExist))
	got := Classify("browser", fmt.Errorf("loading profile: %w", inner))

	if got.Kind != KindNotFound || got.Key != "chromium" {
		t.Errorf("expected not_found/chromium, got %v/%q", got.Kind, got.Key)
	}
	want := "chromium: not found: loading profile: open prefs: file does not exist"
	if got.Error() != want {
		t.Errorf("expected %q, got %q", want, got.Error())
	}
	if !errors.Is(got, os.ErrNotExist) {
		t.Error("cause must stay reachable through Unwrap")
	}

	// A wrapper that does not end with the inner message is kept whole.
	got = Classify("x", fmt.Errorf("%w (while loading)", Malformed("session", nil)))
	if got.Key != "session" || !strings.Contains(got.Error(), "(while loading)") {
		t.Errorf("unexpected error %q", got.Error())
	}
}

func TestFrom_Nil(t *testing.T) {
	e := From(nil)
	if e.Len() != 0 {
		t.Fatalf("expected empty collection, got %d errors", e.Len())
	}
	if e.Error() != "" || len(e.Wire()) != 0 || len(e.Keys()) != 0 {
		t.Errorf("empty collection misbehaves: error=%q keys=%v", e.Error(), e.Keys())
	}
	if _, err := json.Marshal(e); err != nil {
		t.Errorf("unexpected marshal error: %v", err)
	}
	if merged := From(nil).Concat(From(IO("df", nil))); merged.Len() != 1 {
		t.Errorf("expected 1 error after concat, got %d", merged.Len())
	}
}

func TestClassify_Nil(t *testing.T) {
	if Classify("x", nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestStatus_SingleKinds(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindIO, http.StatusServiceUnavailable},
		{KindNotFound, http.StatusNotFound},
		{KindMalformed, http.StatusUnprocessableEntity},
		{KindEncoding, http.StatusInternalServerError},
		{Kind(0), http.StatusServiceUnavailable},
		{Kind(42), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		c := From(&Error{Kind: tt.kind, Key: "k"})
		if got := c.Status(); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.kind, tt.want, got)
		}
	}
}

func TestStatus_HighestPrecedenceWinsAnywhere(t *testing.T) {
	kinds := []Kind{KindIO, KindNotFound, KindMalformed, KindEncoding}
	for top := range kinds {
		for pos := 0; pos <= top; pos++ {
			// Build a collection of all kinds up to top, with top inserted at pos.
			var c Errors
			lower := kinds[:top]
			for i := 0; i <= len(lower); i++ {
				if i == pos {
					c = c.Concat(From(&Error{Kind: kinds[top], Key: "top"}))
				}
				if i < len(lower) {
					c = c.Concat(From(&Error{Kind: lower[i], Key: "low"}))
				}
			}
			if got, want := c.Status(), kinds[top].Status(); got != want {
				t.Errorf("top=%v pos=%d: expected %d, got %d", kinds[top], pos, want, got)
			}
		}
	}
}

func TestStatus_Empty(t *testing.T) {
	var c Errors
	if c.Status() != http.StatusOK {
		t.Errorf("expected 200 for empty collection, got %d", c.Status())
	}
}

func TestStatus_Scenario(t *testing.T) {
	o := Combine(Failure(Malformed("cpuinfo", nil)), Failure(NotFound("smart", nil)))
	if o.Errors().Len() != 2 {
		t.Fatalf("expected 2 errors, got %d", o.Errors().Len())
	}
	if o.Status() != http.StatusUnprocessableEntity {
		t.Errorf("expected malformed status, got %d", o.Status())
	}
}
