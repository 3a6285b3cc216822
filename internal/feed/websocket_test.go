package feed

import "testing"

func TestParseTick(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"valid", `{"symbol":"AAPL","price":190.5,"ts":"2024-01-02T15:04:05Z"}`, true},
		{"missing ts defaults", `{"symbol":"AAPL","price":190.5}`, true},
		{"subscription ack", `{"result":null,"id":1}`, false},
		{"zero price", `{"symbol":"AAPL","price":0}`, false},
		{"negative price", `{"symbol":"AAPL","price":-1}`, false},
		{"not json", `pong`, false},
	}
	for _, tc := range cases {
		tick, ok := ParseTick([]byte(tc.raw))
		if ok != tc.ok {
			t.Errorf("%s: ok = %v, want %v", tc.name, ok, tc.ok)
			continue
		}
		if ok && tick.TS.IsZero() {
			t.Errorf("%s: timestamp not defaulted", tc.name)
		}
	}
}
