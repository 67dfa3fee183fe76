package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPasswordSource_Read(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		envName string
		input   string
		want    string
		wantErr error
	}{
		{
			name:    "from environment",
			env:     map[string]string{"STORE_PASS": "from-env"},
			envName: "STORE_PASS",
			input:   "from-stdin\n",
			want:    "from-env",
		},
		{
			name:    "unset variable falls back to input",
			envName: "STORE_PASS",
			input:   "from-stdin\r\n",
			want:    "from-stdin",
		},
		{
			name:  "last line without newline",
			input: "no-newline",
			want:  "no-newline",
		},
		{
			name:  "empty password line",
			input: "\n",
			want:  "",
		},
		{
			name:    "no input",
			input:   "",
			wantErr: ErrNoPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompt bytes.Buffer
			src := &PasswordSource{
				In:     strings.NewReader(tt.input),
				Prompt: &prompt,
				LookupEnv: func(name string) (string, bool) {
					v, ok := tt.env[name]
					return v, ok
				},
			}

			got, err := src.Read("Keystore password: ", tt.envName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Read() error = %v, want %v", err, tt.wantErr)
				}
				if !strings.HasPrefix(err.Error(), "Keystore password") {
					t.Errorf("error %q does not name the prompt", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Read() = %q, want %q", got, tt.want)
			}
			if prompt.Len() != 0 {
				t.Errorf("prompted for non-terminal input: %q", prompt.String())
			}
		})
	}
}

func TestPasswordSource_ReadsSuccessiveLines(t *testing.T) {
	src := &PasswordSource{
		In:        strings.NewReader("store\nentry\n"),
		LookupEnv: func(string) (string, bool) { return "", false },
	}

	store, err := src.Read("Keystore password: ", "")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	entry, err := src.Read("Entry password: ", "")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(store) != "store" || string(entry) != "entry" {
		t.Errorf("got %q and %q, want store and entry", store, entry)
	}
}
