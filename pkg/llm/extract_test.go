package llm

import (
	"reflect"
	"testing"
)

func TestExtractSteps(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"step prefixes",
			"Step 1: Expand\nStep 2: Simplify\nAnswer: 3",
			[]string{"Expand", "Simplify"},
		},
		{
			"numbered list",
			"1. Move terms\n2) Divide\n\nSo x = 2",
			[]string{"Move terms", "Divide"},
		},
		{
			"bold markdown",
			"**Step 1:** Factor\n- Step 2. Solve",
			[]string{"Factor", "Solve"},
		},
		{
			"json steps",
			`Result: {"steps": ["add", "multiply"], "answer": 6}`,
			[]string{"add", "multiply"},
		},
		{
			"malformed json repaired",
			`{steps: ['isolate x', 'divide'], answer: 'x = 2'}`,
			[]string{"isolate x", "divide"},
		},
		{
			"json step objects",
			`{"steps": [{"step": 1, "description": "square"}, {"step": 2, "description": "root"}]}`,
			[]string{"square", "root"},
		},
		{
			"decimal at line start",
			"The area is computed directly.\n0.5 * 4 * 3 = 6\nAnswer: 6",
			nil,
		},
		{
			"decimal between numbered steps",
			"1. Halve the base\n2.5 is the height\n2) Multiply",
			[]string{"Halve the base", "Multiply"},
		},
		{
			"no steps",
			"The result is 42.",
			nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractSteps(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("extractSteps() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractConclusion(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"therefore", "A implies B. A holds. Therefore, B holds.", "B holds"},
		{"in conclusion", "Many points.\nIn conclusion: ship it.", "ship it"},
		{"last match wins", "Thus x is odd. More thought. Hence x is prime!", "x is prime"},
		{"final answer", "Work...\nFinal answer: 12", "12"},
		{"decimal not a sentence end", "Therefore the value is 4.5 units.", "the value is 4.5 units"},
		{"none", "No signal phrase here.", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractConclusion(tc.text); got != tc.want {
				t.Errorf("extractConclusion() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUnwrapCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"fenced with language", "```python\nprint('hi')\n```", "print('hi')"},
		{"fenced without language", "intro\n```\nls -la\n```", "ls -la"},
		{"first block only", "```go\na()\n```\n```go\nb()\n```", "a()"},
		{"plain", "  x = 1  \n", "x = 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := unwrapCode(tc.text); got != tc.want {
				t.Errorf("unwrapCode() = %q, want %q", got, tc.want)
			}
		})
	}
}
