package ai

import (
	"testing"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	type entity struct {
		Name string `json:"name"`
		Type string `json:"type,omitempty"`
	}

	tests := []struct {
		name  string
		input string
		want  entity
	}{
		{
			name:  "valid json object",
			input: `{"name":"Apollo 11"}`,
			want:  entity{Name: "Apollo 11"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{name: 'Apollo 11'}`,
			want:  entity{Name: "Apollo 11"},
		},
		{
			name:  "trailing comma",
			input: `{"name":"Apollo 11",}`,
			want:  entity{Name: "Apollo 11"},
		},
		{
			name:  "missing endbracket",
			input: `{"name":"Apollo 11`,
			want:  entity{Name: "Apollo 11"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{name: 'Apollo 11'}"`,
			want:  entity{Name: "Apollo 11"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"name\": \"Apollo 11\"\n}\n",
			want:  entity{Name: "Apollo 11"},
		},
		{
			name:  "duplicate leading brace no newlines",
			input: `{ { "name": "Apollo 11" }`,
			want:  entity{Name: "Apollo 11"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got entity
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Name != tc.want.Name || got.Type != tc.want.Type {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_ArrayVariants(t *testing.T) {
	type entity struct {
		Name string `json:"name"`
		Type string `json:"type,omitempty"`
	}

	input := `[{name:'NASA'},{name:'Mission Control',}]`
	var got []entity
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "NASA" || got[1].Name != "Mission Control" {
		t.Fatalf("UnmarshalFlexible() got = %+v, want two entities NASA, Mission Control", got)
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	type entity struct {
		Name string `json:"name"`
		Type string `json:"type,omitempty"`
	}

	var got entity
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestUnmarshalFlexible_SceneExamples(t *testing.T) {
	type scene struct {
		ClipID   string   `json:"clip_id"`
		Setting  string   `json:"setting"`
		Keywords []string `json:"keywords"`
	}

	tests := []struct {
		name  string
		input string
		want  scene
	}{
		{
			name:  "launch scene simple stringified",
			input: `"{ \"clip_id\": \"launch_clip_0003\", \"setting\": \"launch pad\", \"keywords\": [ \"rocket\", \"countdown\" ] }"`,
			want:  scene{ClipID: "launch_clip_0003", Setting: "launch pad", Keywords: []string{"rocket", "countdown"}},
		},
		{
			name:  "launch scene stringified with newlines",
			input: `"{\n  \"clip_id\": \"launch_clip_0003\",\n  \"setting\": \"launch pad\",\n  \"keywords\": [\"rocket\", \"countdown\", \"crowd watching (e.g., press, engineers)\"]\n  }\n"`,
			want:  scene{ClipID: "launch_clip_0003", Setting: "launch pad", Keywords: []string{"rocket", "countdown", "crowd watching (e.g., press, engineers)"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got scene
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.ClipID != tc.want.ClipID || got.Setting != tc.want.Setting {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
			if len(got.Keywords) != len(tc.want.Keywords) {
				t.Fatalf("UnmarshalFlexible() keywords length got = %d, want %d", len(got.Keywords), len(tc.want.Keywords))
			}
			for i := range got.Keywords {
				if got.Keywords[i] != tc.want.Keywords[i] {
					t.Fatalf("UnmarshalFlexible() keywords[%d] = %q, want %q", i, got.Keywords[i], tc.want.Keywords[i])
				}
			}
		})
	}
}
