package record

import (
	"encoding/json"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		label    string
		expected Severity
	}{
		{label: "debug", expected: DEBUG},
		{label: "TRACE", expected: DEBUG},
		{label: "Info", expected: INFO},
		{label: "warn", expected: WARN},
		{label: "WARNING", expected: WARN},
		{label: "err", expected: ERROR},
		{label: "error", expected: ERROR},
		{label: "crit", expected: CRITICAL},
		{label: "fatal", expected: CRITICAL},
		{label: " critical ", expected: CRITICAL},
	}

	for _, test := range tests {
		got, err := ParseSeverity(test.label)
		if err != nil {
			t.Logf("%s failed to parse. Error: %s", test.label, err)
			t.Fail()
			continue
		}
		if got != test.expected {
			t.Logf("%s parsed to the wrong severity. Want: %s, Got: %s", test.label, test.expected, got)
			t.Fail()
		}
	}

	if _, err := ParseSeverity("potato"); err == nil {
		t.Logf("an unknown label did not return an error")
		t.Fail()
	}
}

func TestSeverityOrdering(t *testing.T) {
	ordered := []Severity{DEBUG, INFO, WARN, ERROR, CRITICAL}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] >= ordered[i] {
			t.Fatalf("%s should sort before %s", ordered[i-1], ordered[i])
		}
	}

	rec := New("main", WARN, "hello")
	if !rec.AtLeast(INFO) || !rec.AtLeast(WARN) || rec.AtLeast(ERROR) {
		t.Logf("AtLeast filtered a WARN record incorrectly")
		t.Fail()
	}
}

func TestSeverityLabels(t *testing.T) {
	if WARN.String() != "WARNING" {
		t.Logf("WARN label was %s", WARN)
		t.Fail()
	}
	if Severity(42).Valid() {
		t.Logf("severity 42 should not be valid")
		t.Fail()
	}
}

func TestRecordJSON(t *testing.T) {
	rec := New("main", ERROR, "boom").WithException("trace line 1\ntrace line 2")
	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}

	decoded := LogRecord{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("failed to decode %s. Error: %s", out, err)
	}
	if decoded.Severity != ERROR || decoded.RawExceptionText != rec.RawExceptionText {
		t.Logf("decoded record does not match. Want: %+v, Got: %+v", rec, decoded)
		t.Fail()
	}
	if !decoded.Timestamp.Equal(rec.Timestamp) {
		t.Logf("timestamps differ. Want: %s, Got: %s", rec.Timestamp, decoded.Timestamp)
		t.Fail()
	}
}
