package datefmt

import "testing"

func TestFromSerial(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"37241", "16/12/2001", true},
		{"37241.75", "16/12/2001", true},
		{"37240.9999999", "16/12/2001", true},
		{"1", "31/12/1899", true},
		{"0", "", false},
		{"2958466", "", false},
		{"abc", "", false},
		{"NaN", "", false},
	}
	for _, tt := range tests {
		got, ok := FromSerial(tt.in)
		if ok != tt.wantOK || (ok && Format(got) != tt.want) {
			t.Errorf("FromSerial(%q): got=%s,%v; want %s,%v", tt.in, Format(got), ok, tt.want, tt.wantOK)
		}
	}
}

func TestFromDateTime(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2001-12-16", "16/12/2001", true},
		{"2001-12-16 00:00:00", "16/12/2001", true},
		{"2001-12-16T08:30:00Z", "16/12/2001", true},
		{"2001-02-30 00:00:00", "", false},
		{"16/12/2001", "", false},
	}
	for _, tt := range tests {
		got, ok := FromDateTime(tt.in)
		if ok != tt.wantOK || (ok && Format(got) != tt.want) {
			t.Errorf("FromDateTime(%q): got=%s,%v; want %s,%v", tt.in, Format(got), ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseDayFirst(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"16-12-2001", "16/12/2001", true},
		{"05.06.2001", "05/06/2001", true},
		{"5/6/01", "05/06/2001", true},
		{"16 Dec 2001", "16/12/2001", true},
		{"December 16, 2001", "16/12/2001", true},
		{"2001/12/16", "16/12/2001", true},
		{"05/06/2001 10:30:00", "05/06/2001", true},
		{"05/06/2001 10:30", "05/06/2001", true},
		{"16/12/2001 00:00:00", "16/12/2001", true},
		{"16/12/2001 00:00:00.000", "16/12/2001", true},
		{"05-06-2001 10:30:00", "05/06/2001", true},
		{"05.06.2001 10:30", "05/06/2001", true},
		{"12/16/2001 10:30", "16/12/2001", true},
		{"5/6/2001", "", false},
		{"not a date", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDayFirst(tt.in)
		if ok != tt.wantOK || (ok && Format(got) != tt.want) {
			t.Errorf("ParseDayFirst(%q): got=%s,%v; want %s,%v", tt.in, Format(got), ok, tt.want, tt.wantOK)
		}
	}
}

func TestPadSlash(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"5/6/2001", "05/06/2001", true},
		{"16/12/2001", "16/12/2001", true},
		{"12/16/2001", "", false},
		{"31/02/2001", "", false},
	}
	for _, tt := range tests {
		got, ok := PadSlash(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("PadSlash(%q): got=%s,%v; want %s,%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestValid(t *testing.T) {
	if !Valid(2000, 2, 29) || Valid(2001, 2, 29) || Valid(0, 1, 1) || Valid(2001, 13, 1) {
		t.Fatal("calendar validity wrong")
	}
}
