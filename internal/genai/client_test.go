package genai

import "testing"

func TestParseIdeas(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"object wrapper", `{"ideas": ["قارب", "عاصفة"]}`, 2, false},
		{"bare array", `["قارب", "عاصفة", "شاطئ"]`, 3, false},
		{"empty object list", `{"ideas": []}`, 0, false},
		{"wrong key", `{"scenes": ["قارب"]}`, 0, true},
		{"not json", `no ideas today`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ideas, err := parseIdeas(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIdeas: %v", err)
			}
			if len(ideas) != tt.want {
				t.Errorf("len = %d, want %d", len(ideas), tt.want)
			}
		})
	}
}

func TestParseBonusQuestions(t *testing.T) {
	// JSON mode replies are object-shaped; the wrapper must decode them.
	wrapped := `{"questions": [{"type": "تحليل", "question": "لماذا؟", "answer": "لأن"}]}`
	questions, err := parseBonusQuestions(wrapped)
	if err != nil {
		t.Fatalf("parseBonusQuestions: %v", err)
	}
	if len(questions) != 1 || questions[0].Prompt != "لماذا؟" {
		t.Errorf("unexpected questions: %+v", questions)
	}

	// Bare arrays from laxer gateways still decode.
	bare := `[{"type": "تحليل", "question": "كيف؟", "answer": "هكذا"}]`
	questions, err = parseBonusQuestions(bare)
	if err != nil {
		t.Fatalf("parseBonusQuestions bare array: %v", err)
	}
	if len(questions) != 1 || questions[0].Prompt != "كيف؟" {
		t.Errorf("unexpected questions: %+v", questions)
	}

	if _, err := parseBonusQuestions(`{"items": []}`); err == nil {
		t.Error("expected error for unknown wrapper key")
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n[1,2]\n```", `[1,2]`},
		{"surrounding whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFence(tt.in); got != tt.want {
				t.Errorf("stripFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{1, 1},
		{2, 2},
		{7, 2},
	}

	for _, tt := range tests {
		if got := clampScore(tt.in); got != tt.want {
			t.Errorf("clampScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
