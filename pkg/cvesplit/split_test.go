package cvesplit

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	type args struct {
		text string
	}

	tests := []struct {
		name string
		args args
		want []string
	}{
		{
			name: "single",
			args: args{text: "Apache HTTP Server path traversal (CVE-2021-41773)"},
			want: []string{"CVE-2021-41773"},
		},
		{
			name: "multiLine",
			args: args{text: "Anyscale Ray RCE (CVE-2025-34351)\nChrome V8 type confusion (CVE-2025-13223)"},
			want: []string{"CVE-2025-34351", "CVE-2025-13223"},
		},
		{
			name: "duplicatesAndCase",
			args: args{text: "cve-2024-3400 is the same as CVE-2024-3400"},
			want: []string{"CVE-2024-3400"},
		},
		{
			name: "none",
			args: args{text: "a suspicious binary without any identifier"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.args.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContext(t *testing.T) {
	text := "Anyscale Ray RCE (CVE-2025-34351)\nChrome V8 type confusion (CVE-2025-13223)"

	got := Context(text, "CVE-2025-13223")
	want := "Chrome V8 type confusion (CVE-2025-13223)"

	if got != want {
		t.Errorf("Context() got = %v, want %v", got, want)
	}

	if got := Context("no id here", "CVE-2020-0001"); got != "no id here" {
		t.Errorf("Context() fallback got = %v", got)
	}
}
