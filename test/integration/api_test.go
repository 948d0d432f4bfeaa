package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestEvaluateEndpoint(t *testing.T) {
	requireServer(t)

	tests := []struct {
		name    string
		formula string
		want    interface{}
	}{
		{"precedence", "2 + 3 * 4", 14.0},
		{"brackets", "(2 + 3) * 4", 20.0},
		{"unary minus", "-5 + 3", -2.0},
		{"max", "2 * 3 max 5", 10.0},
		{"division", "7 / 2", 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, http.MethodPost, "evaluate", map[string]interface{}{"formula": tt.formula})
			if code != http.StatusOK {
				t.Fatalf("status %d: %v", code, body)
			}
			if body["value"] != tt.want {
				t.Errorf("value = %v, want %v", body["value"], tt.want)
			}
		})
	}
}

func TestChatSession(t *testing.T) {
	requireServer(t)

	code, body := doJSON(t, http.MethodPost, "sessions", map[string]interface{}{"title": "integration", "mode": "additive"})
	if code != http.StatusCreated {
		t.Fatalf("create session: %d %v", code, body)
	}
	id := body["id"].(string)

	code, body = doJSON(t, http.MethodPost, "sessions/"+id+"/messages", map[string]interface{}{
		"text": "I attack for 1d1+2 damage",
		"seed": 1,
	})
	if code != http.StatusCreated {
		t.Fatalf("post message: %d %v", code, body)
	}
	if plain, _ := body["plain"].(string); !strings.Contains(plain, "1d1+2 = 1 + 2 = 3") {
		t.Errorf("plain = %q", plain)
	}

	code, body = doJSON(t, http.MethodGet, "sessions/"+id+"/messages", nil)
	if msgs, _ := body["messages"].([]interface{}); code != http.StatusOK || len(msgs) != 1 {
		t.Errorf("messages = %d %v", code, body)
	}
}

func TestSampleRuleSetCharacter(t *testing.T) {
	requireServer(t)

	if code, _ := doJSON(t, http.MethodGet, "rulesets/d20-basic", nil); code == http.StatusNotFound {
		t.Skip("d20-basic not loaded; start the engine with --rulesets-dir rulesets")
	}

	code, body := doJSON(t, http.MethodPost, "characters", map[string]interface{}{
		"rule_set": "d20-basic",
		"attrs": map[string]interface{}{
			"character.name":  "Integration",
			"character.level": 1,
			"abilities.dex":   16,
		},
	})
	if code != http.StatusCreated {
		t.Fatalf("create character: %d %v", code, body)
	}
	id := body["id"].(string)
	defer doJSON(t, http.MethodDelete, "characters/"+id, nil)

	if body["title"] != "Integration" {
		t.Errorf("title = %v", body["title"])
	}
}
