package dataset

import (
	"strings"
	"testing"
)

func TestDecodeMinuteLog(t *testing.T) {
	in := `timestamp,machine,shift,day,is_running,units,good_units
2024-03-01 08:00:00,M1,day,2024-03-01,1,6,6
2024-03-01 08:01:00,M1,day,2024-03-01,0,0,0
`
	recs, err := DecodeMinuteLog(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Machine != "M1" || recs[0].Shift != "day" || !recs[0].IsRunning {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[0].Units != 6 || recs[0].GoodUnits != 6 {
		t.Fatalf("unexpected counts: %+v", recs[0])
	}
	if recs[1].IsRunning {
		t.Fatalf("second record should not be running")
	}
}

func TestDecodeMinuteLog_DerivesDayFromTimestamp(t *testing.T) {
	in := `timestamp,machine,shift,is_running,units,good_units
2024-03-02 23:59:00,M1,night,1,5,5
`
	recs, err := DecodeMinuteLog(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs[0].Day != "2024-03-02" {
		t.Fatalf("expected derived day 2024-03-02, got %q", recs[0].Day)
	}
}

func TestDecodeMinuteLog_MissingColumnFailsFast(t *testing.T) {
	in := `timestamp,machine,shift,units,good_units
2024-03-01 08:00:00,M1,day,6,6
`
	if _, err := DecodeMinuteLog(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for missing is_running column")
	}
}

func TestDecodeMinuteLog_BadTimestamp(t *testing.T) {
	in := `timestamp,machine,shift,is_running,units,good_units
not-a-time,M1,day,1,6,6
`
	if _, err := DecodeMinuteLog(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
}

func TestDecodeDowntimeLog(t *testing.T) {
	in := `machine,cause,minutes
M1,changeover,35
M1,jam,12.5
`
	events, err := DecodeDowntimeLog(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Cause != "jam" || events[1].Minutes != 12.5 {
		t.Fatalf("unexpected event: %+v", events[1])
	}
}

func TestDecodeSPCLog_UppercaseRColumn(t *testing.T) {
	in := `machine,xbar,R
M1,10.1,0.5
`
	samples, err := DecodeSPCLog(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 1 || samples[0].Xbar != 10.1 || samples[0].R != 0.5 {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestDecodeSPCLog_QuotedHeaders(t *testing.T) {
	in := `"machine","xbar","r"
M2,9.9,0.3
`
	samples, err := DecodeSPCLog(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 1 || samples[0].Machine != "M2" {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}
