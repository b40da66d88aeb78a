package httpserver

import (
	"errors"
	"reflect"
	"testing"

	"github.com/branchweb/branchweb-go/internal/core/domain"
)

func TestParseRealPath(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantPath string
		wantForm FormData
		wantErr  bool
	}{
		{name: "root", target: "/", wantPath: ""},
		{name: "empty", target: "", wantPath: ""},
		{name: "plain path", target: "/health", wantPath: "health"},
		{name: "nested path verbatim", target: "/a/b", wantPath: "a/b"},
		{
			name:     "query key is the path",
			target:   "/?whoami=abc",
			wantPath: "whoami",
			wantForm: FormData{"whoami": "abc"},
		},
		{
			name:     "path before query is ignored",
			target:   "/status?foo=bar",
			wantPath: "foo",
			wantForm: FormData{"foo": "bar"},
		},
		{
			name:     "query after a plain path still routes",
			target:   "/health?x=1",
			wantPath: "x",
			wantForm: FormData{"x": "1"},
		},
		{
			name:     "first key wins",
			target:   "/?keys=k1&extra=1",
			wantPath: "keys",
			wantForm: FormData{"keys": "k1", "extra": "1"},
		},
		{
			name:     "pairs without equals dropped",
			target:   "/?flag&whoami=k",
			wantPath: "whoami",
			wantForm: FormData{"whoami": "k"},
		},
		{
			name:     "value stops at second equals",
			target:   "/?a=b=c",
			wantPath: "a",
			wantForm: FormData{"a": "b"},
		},
		{
			name:     "duplicate keeps first position",
			target:   "/?a=1&b=2&a=3",
			wantPath: "a",
			wantForm: FormData{"a": "3", "b": "2"},
		},
		{
			name:     "no percent decoding",
			target:   "/?q=a%20b",
			wantPath: "q",
			wantForm: FormData{"q": "a%20b"},
		},
		{name: "lone question mark", target: "/?", wantPath: "?"},
		{name: "trailing question mark", target: "/status?", wantPath: "status?"},
		{name: "query without pairs", target: "/?flag", wantErr: true},
		{name: "query of separators", target: "/?&&", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, form, err := ParseRealPath(tt.target)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrMalformedRequest) {
					t.Fatalf("error = %v, want ErrMalformedRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRealPath() error = %v", err)
			}
			if path != tt.wantPath {
				t.Errorf("path = %q, want %q", path, tt.wantPath)
			}
			if !reflect.DeepEqual(form, tt.wantForm) {
				t.Errorf("form = %v, want %v", form, tt.wantForm)
			}
		})
	}
}
