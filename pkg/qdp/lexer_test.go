package qdp

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		delim   Delimiter
		kind    LineKind
		payload string
	}{
		{"empty", "", DelimAuto, LineBlank, ""},
		{"spaces", "   \t ", DelimAuto, LineBlank, ""},
		{"comment", "! Swift/XRT light curve", DelimAuto, LineComment, "Swift/XRT light curve"},
		{"indented comment", "    !MJD  Err", DelimAuto, LineComment, "MJD  Err"},
		{"bare comment", "!", DelimAuto, LineComment, ""},
		{"command terr", "READ TERR 1", DelimAuto, LineCommand, "READ TERR 1"},
		{"command mixed case", "read Serr 2 3", DelimAuto, LineCommand, "read Serr 2 3"},
		{"command inline comment", "READ SERR 2 ! rate", DelimAuto, LineCommand, "READ SERR 2"},
		{"not a command", "READ FOO 1", DelimAuto, LineData, "READ FOO 1"},
		{"command without index", "READ TERR", DelimAuto, LineData, "READ TERR"},
		{"single NO", "NO", DelimAuto, LineSentinel, "NO"},
		{"sentinel", "NO NO NO NO NO", DelimAuto, LineSentinel, "NO NO NO NO NO"},
		{"sentinel lowercase", "no No nO", DelimAuto, LineSentinel, "no No nO"},
		{"comma sentinel", "NO,NO,NO", DelimComma, LineSentinel, "NO,NO,NO"},
		{"comma sentinel auto", "NO, NO", DelimAuto, LineSentinel, "NO, NO"},
		{"space sentinel under comma", "NO NO", DelimComma, LineData, "NO NO"},
		{"NO in data", "NO 1.5 -1.5", DelimAuto, LineData, "NO 1.5 -1.5"},
		{"data", "53000.5 0.25 -0.5", DelimAuto, LineData, "53000.5 0.25 -0.5"},
		{"data inline comment", "1 2 3 ! note", DelimAuto, LineData, "1 2 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input, tt.delim)
			if got.Kind != tt.kind {
				t.Errorf("Classify(%q).Kind = %v, want %v", tt.input, got.Kind, tt.kind)
			}
			if got.Payload != tt.payload {
				t.Errorf("Classify(%q).Payload = %q, want %q", tt.input, got.Payload, tt.payload)
			}
			if got.Text != tt.input {
				t.Errorf("Classify(%q).Text = %q", tt.input, got.Text)
			}
		})
	}
}

func TestClassifySentinelLeadingWhitespace(t *testing.T) {
	for _, space := range []string{"", " ", "   ", "\t", "\v", "\r", "\f", " \t\v"} {
		got := Classify(space+"NO", DelimSpace)
		if got.Kind != LineSentinel {
			t.Errorf("Classify(%q) = %v, want sentinel", space+"NO", got.Kind)
		}
	}
}

func TestClassifyCommandPayload(t *testing.T) {
	rl := Classify("READ Terr 1 2", DelimAuto)
	if rl.Cmd == nil {
		t.Fatal("expected a parsed command")
	}
	if rl.Cmd.Kind != ErrAsymmetric {
		t.Errorf("Kind = %v, want TERR", rl.Cmd.Kind)
	}
	if !reflect.DeepEqual(rl.Cmd.Indices, []int{1, 2}) {
		t.Errorf("Indices = %v, want [1 2]", rl.Cmd.Indices)
	}
}

func TestParseCommandRejects(t *testing.T) {
	for _, input := range []string{
		"READ TERR 0",
		"READ SERR -1",
		"READ SERR 1.5",
		"READ SERR 1 x",
		"PLOT TERR 1",
		"READTERR 1",
	} {
		if _, ok := parseCommand(input, newFolder()); ok {
			t.Errorf("parseCommand(%q) accepted, want rejection", input)
		}
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		input   string
		want    Delimiter
		wantErr bool
	}{
		{"", DelimAuto, false},
		{"auto", DelimAuto, false},
		{"SPACE", DelimSpace, false},
		{"whitespace", DelimSpace, false},
		{"comma", DelimComma, false},
		{",", DelimComma, false},
		{"tab", DelimAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseDelimiter(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDelimiter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseDelimiter(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		input string
		delim Delimiter
		want  []string
	}{
		{"1  2\t3", DelimSpace, []string{"1", "2", "3"}},
		{"1, 2 ,3", DelimComma, []string{"1", "2", "3"}},
		{"1,,3", DelimComma, []string{"1", "", "3"}},
	}
	for _, tt := range tests {
		got := splitFields(tt.input, tt.delim)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitFields(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFolderReuse(t *testing.T) {
	f := newFolder()
	tests := []struct {
		input string
		want  string
	}{
		{"READ", "read"},
		{"Terr", "terr"},
		{"NO", "no"},
		{"", ""},
		{"-NaN", "-nan"},
		{"SERR", "serr"},
	}
	for range 2 {
		for _, tt := range tests {
			if got := f.fold(tt.input); got != tt.want {
				t.Errorf("fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		}
	}
}
