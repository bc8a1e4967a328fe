package apifootball

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"
)

const fixturesBody = `{
  "get": "fixtures",
  "errors": [],
  "results": 3,
  "response": [
    {
      "fixture": {"id": 1035037, "date": "2023-08-11T19:00:00+00:00", "status": {"long": "Match Finished", "short": "FT", "elapsed": 90}},
      "league": {"id": 39, "season": 2023, "round": "Regular Season - 1"},
      "teams": {"home": {"id": 44, "name": "Burnley", "winner": false}, "away": {"id": 50, "name": "Manchester City", "winner": true}},
      "goals": {"home": 0, "away": 3}
    },
    {
      "fixture": {"id": 1035038, "date": "2023-08-12T12:30:00+00:00", "status": {"long": "Match Finished", "short": "PEN", "elapsed": 120}},
      "league": {"id": 39, "season": 2023, "round": "Regular Season - 1"},
      "teams": {"home": {"id": 42, "name": "Arsenal", "winner": true}, "away": {"id": 65, "name": "Nottingham Forest", "winner": false}},
      "goals": {"home": 1, "away": 1}
    },
    {
      "fixture": {"id": 1035039, "date": "2023-08-12T14:00:00+00:00", "status": {"long": "Not Started", "short": "NS", "elapsed": null}},
      "league": {"id": 39, "season": 2023, "round": "Regular Season - 1"},
      "teams": {"home": {"id": 35, "name": "Bournemouth", "winner": null}, "away": {"id": 48, "name": "West Ham", "winner": null}},
      "goals": {"home": null, "away": null}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 6000, nil)
}

func TestRoundFixtures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures" {
			t.Errorf("path = %s, want /fixtures", r.URL.Path)
		}
		if got := r.Header.Get("x-apisports-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		q := r.URL.Query()
		if q.Get("league") != "39" || q.Get("season") != "2023" || q.Get("round") != "Regular Season - 1" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(fixturesBody))
	})

	fixtures, err := c.RoundFixtures(context.Background(), 39, 2023, "Regular Season - 1")
	if err != nil {
		t.Fatalf("RoundFixtures error: %v", err)
	}
	if len(fixtures) != 3 {
		t.Fatalf("len = %d, want 3", len(fixtures))
	}

	ft := fixtures[0]
	if ft.ID != "1035037" || ft.Home.ID != "44" || ft.Away.ID != "50" {
		t.Fatalf("ids = %s %s %s", ft.ID, ft.Home.ID, ft.Away.ID)
	}
	if ft.Status != provider.StatusFinished {
		t.Fatalf("status = %s, want finished", ft.Status)
	}
	if h, a := ft.Goals(); h != 0 || a != 3 {
		t.Fatalf("goals = %d-%d, want 0-3", h, a)
	}
	if ft.Kickoff.IsZero() || ft.Kickoff.Hour() != 19 {
		t.Fatalf("kickoff = %v", ft.Kickoff)
	}

	if fixtures[1].Status != provider.StatusFinishedPenalties {
		t.Fatalf("status = %s, want finished_penalties", fixtures[1].Status)
	}

	ns := fixtures[2]
	if ns.Status.Finished() {
		t.Fatal("NS fixture reported finished")
	}
	if ns.HomeGoals != nil || ns.AwayGoals != nil {
		t.Fatal("null goals should stay nil")
	}
}

func TestRoundFixturesAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": {"token": "Error/Missing application key."}, "results": 0, "response": []}`))
	})
	if _, err := c.RoundFixtures(context.Background(), 39, 2023, "Regular Season - 1"); err == nil {
		t.Fatal("expected error for populated errors object")
	}
}

func TestRoundFixturesHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	if _, err := c.RoundFixtures(context.Background(), 39, 2023, "Regular Season - 1"); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestRounds(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNames []string
		wantDates int
	}{
		{
			name:      "with dates",
			body:      `{"errors": [], "response": [{"round": "Regular Season - 1", "dates": ["2023-08-11", "2023-08-12"]}, {"round": "Regular Season - 2", "dates": ["2023-08-19"]}]}`,
			wantNames: []string{"Regular Season - 1", "Regular Season - 2"},
			wantDates: 2,
		},
		{
			name:      "names only",
			body:      `{"errors": [], "response": ["Regular Season - 1", "Regular Season - 2"]}`,
			wantNames: []string{"Regular Season - 1", "Regular Season - 2"},
			wantDates: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/fixtures/rounds" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			})
			rounds, err := c.Rounds(context.Background(), 39, 2023)
			if err != nil {
				t.Fatalf("Rounds error: %v", err)
			}
			if len(rounds) != len(tt.wantNames) {
				t.Fatalf("len = %d, want %d", len(rounds), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if rounds[i].Name != want {
					t.Fatalf("round[%d] = %s, want %s", i, rounds[i].Name, want)
				}
			}
			if got := len(rounds[0].Dates); got != tt.wantDates {
				t.Fatalf("dates = %d, want %d", got, tt.wantDates)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := map[string]provider.Status{
		"FT":  provider.StatusFinished,
		"AET": provider.StatusFinishedExtraTime,
		"PEN": provider.StatusFinishedPenalties,
		"HT":  provider.StatusInProgress,
		"NS":  provider.StatusNotStarted,
		"PST": provider.StatusPostponed,
		"AWD": provider.StatusUnknown,
		"???": provider.StatusUnknown,
	}
	for code, want := range tests {
		if got := NormalizeStatus(code); got != want {
			t.Errorf("NormalizeStatus(%s) = %s, want %s", code, got, want)
		}
	}
}
