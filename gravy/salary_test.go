package gravy

import "testing"

func TestExtractSalary(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Pays $50,000 - $70,000 with benefits", "$50,000 - $70,000"},
		{"Rate is $25 per hour for this role", "$25 per hour"},
		{"Budget: $1,500 fixed price", "$1,500"},
		{"Compensation 65,000 USD annually", "65,000 USD"},
		{"Around 80k for the right person", "80k"},
		{"No pay information here", ""},
	}
	for _, tt := range tests {
		if got := ExtractSalary(tt.text); got != tt.want {
			t.Errorf("ExtractSalary(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestHasSalary(t *testing.T) {
	if !HasSalary("paying $20/hr") {
		t.Error("expected salary detection for hourly rate")
	}
	if HasSalary("competitive compensation") {
		t.Error("vague text should not count as salary")
	}
}

func TestParseSalary(t *testing.T) {
	tests := []struct {
		in         string
		wantHourly bool
		wantAmount int
		wantOK     bool
	}{
		{"$25 per hour", true, 25, true},
		{"$18/hr", true, 18, true},
		{"80k", false, 80000, true},
		{"$50,000 - $70,000", false, 70000, true},
		{"65,000 USD", false, 65000, true},
		{"$50,000 per week", false, 50000, true},
		{"think tank stipend $45,000", false, 45000, true},
		{"competitive", false, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseSalary(tt.in)
		if ok != tt.wantOK {
			t.Errorf("parseSalary(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if got.hourly != tt.wantHourly || got.amount != tt.wantAmount {
			t.Errorf("parseSalary(%q) = %+v, want hourly=%v amount=%d", tt.in, got, tt.wantHourly, tt.wantAmount)
		}
	}
}

func TestSalaryPointsTiers(t *testing.T) {
	tests := []struct {
		salary string
		want   int
	}{
		{"$35 per hour", 35},
		{"$22 per hour", 25},
		{"$16/hr", 15},
		{"$10/hr", 0},
		{"90k", 30},
		{"65k", 20},
		{"$8,000", 15},
		{"competitive", 10},
	}
	for _, tt := range tests {
		got, _ := salaryPoints(tt.salary)
		if got != tt.want {
			t.Errorf("salaryPoints(%q) = %d, want %d", tt.salary, got, tt.want)
		}
	}
}
