package ai

import "testing"

func TestParseAdvice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		counter string
		wantErr bool
	}{
		{"accept", "ACCEPT", ActionAccept, "", false},
		{"lowercase with reason", "reject - too low", ActionReject, "", false},
		{"counter", "COUNTER 85.50", ActionCounter, "85.5", false},
		{"counter colon currency", "Counter: $90", ActionCounter, "90", false},
		{"counter rounds", "COUNTER 10.006", ActionCounter, "10.01", false},
		{"first action wins", "ACCEPT. Or COUNTER 5", ActionAccept, "", false},
		{"counter without amount", "COUNTER", "", "", true},
		{"counter zero", "COUNTER 0", "", "", true},
		{"no match", "I am not sure", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAdvice(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Action != tt.want {
				t.Fatalf("action=%v want %v", got.Action, tt.want)
			}
			if tt.counter == "" {
				if got.Counter != nil {
					t.Fatalf("unexpected counter %v", got.Counter)
				}
				return
			}
			if got.Counter == nil || got.Counter.String() != tt.counter {
				t.Fatalf("counter=%v want %v", got.Counter, tt.counter)
			}
		})
	}
}
