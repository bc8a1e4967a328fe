package store

import (
	"testing"
)

func TestDecodeRounds(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantNames []string
		wantErr   bool
	}{
		{name: "null", data: "null"},
		{name: "empty", data: ""},
		{
			name:      "schedule order kept",
			data:      `[{"roundName":"Regular Season - 2","dates":["2024-01-10"]},{"roundName":"Regular Season - 1","dates":["2024-01-03","2024-01-04"]}]`,
			wantNames: []string{"Regular Season - 2", "Regular Season - 1"},
		},
		{name: "undated round", data: `[{"roundName":"Final"}]`, wantNames: []string{"Final"}},
		{name: "bad date", data: `[{"roundName":"R1","dates":["10/01/2024"]}]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rounds, err := DecodeRounds([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(rounds) != len(tt.wantNames) {
				t.Fatalf("rounds = %+v, want %v", rounds, tt.wantNames)
			}
			for i, r := range rounds {
				if r.Name != tt.wantNames[i] {
					t.Fatalf("round %d = %q, want %q", i, r.Name, tt.wantNames[i])
				}
			}
		})
	}
}

func TestParticipantStored(t *testing.T) {
	at := "R4"
	p := Participant{ID: "p", LivesRemaining: 0, IsEliminated: true, EliminatedAtRound: &at}
	st := p.Stored()
	if !st.IsEliminated || st.EliminatedAt() != "R4" || st.LivesRemaining != 0 {
		t.Fatalf("Stored() = %+v", st)
	}
}
