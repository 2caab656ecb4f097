package leg

import "testing"

func TestParse(t *testing.T) {
	line := "1 12/25 737 1234 BOS 0700 E LGA 0815 1.15"
	lg := Parse(line)

	if lg.Day != "1" {
		t.Errorf("Day = %q, want %q", lg.Day, "1")
	}
	if lg.Date != "12/25" {
		t.Errorf("Date = %q, want %q", lg.Date, "12/25")
	}
	if lg.Equipment != "737" {
		t.Errorf("Equipment = %q, want %q", lg.Equipment, "737")
	}
	if lg.FlightNumber != "1234" {
		t.Errorf("FlightNumber = %q, want %q", lg.FlightNumber, "1234")
	}
	if lg.DepartureStation != "BOS" {
		t.Errorf("DepartureStation = %q, want %q", lg.DepartureStation, "BOS")
	}
	if lg.DepartureTime != "0700" {
		t.Errorf("DepartureTime = %q, want %q", lg.DepartureTime, "0700")
	}
	if lg.Meal != "E" {
		t.Errorf("Meal = %q, want %q", lg.Meal, "E")
	}
	if lg.ArrivalStation != "LGA" {
		t.Errorf("ArrivalStation = %q, want %q", lg.ArrivalStation, "LGA")
	}
	if lg.ArrivalTime != "0815" {
		t.Errorf("ArrivalTime = %q, want %q", lg.ArrivalTime, "0815")
	}
	if lg.BlockTime != "1.15" {
		t.Errorf("BlockTime = %q, want %q", lg.BlockTime, "1.15")
	}
	if lg.Remarks != "" {
		t.Errorf("Remarks = %q, want empty", lg.Remarks)
	}
	if lg.Raw != line {
		t.Errorf("Raw = %q, want %q", lg.Raw, line)
	}
}

func TestParse_NoMeal(t *testing.T) {
	lg := Parse("2 12/26 320 456 LGA 0900 BOS 1015")

	if lg.Meal != "" {
		t.Errorf("Meal = %q, want empty", lg.Meal)
	}
	if lg.ArrivalStation != "BOS" {
		t.Errorf("ArrivalStation = %q, want %q", lg.ArrivalStation, "BOS")
	}
	if lg.ArrivalTime != "1015" {
		t.Errorf("ArrivalTime = %q, want %q", lg.ArrivalTime, "1015")
	}
	if lg.BlockTime != "" {
		t.Errorf("BlockTime = %q, want empty", lg.BlockTime)
	}
}

func TestParse_Remarks(t *testing.T) {
	lg := Parse("1 12/25 737 1234 BOS 0700 E LGA 0815 1.15 DH CREW MEAL")

	if lg.BlockTime != "1.15" {
		t.Errorf("BlockTime = %q, want %q", lg.BlockTime, "1.15")
	}
	if lg.Remarks != "DH CREW MEAL" {
		t.Errorf("Remarks = %q, want %q", lg.Remarks, "DH CREW MEAL")
	}
}

func TestParse_RemarksWithoutBlockTime(t *testing.T) {
	lg := Parse("1 12/25 737 1234 BOS 0700 E LGA 0815 SA ONLY")

	if lg.BlockTime != "" {
		t.Errorf("BlockTime = %q, want empty", lg.BlockTime)
	}
	if lg.Remarks != "SA ONLY" {
		t.Errorf("Remarks = %q, want %q", lg.Remarks, "SA ONLY")
	}
}

func TestParse_TokenStarvation(t *testing.T) {
	lg := Parse("1 12/25 737")

	if lg.Day != "1" || lg.Date != "12/25" || lg.Equipment != "737" {
		t.Errorf("leading fields = (%q, %q, %q), want (1, 12/25, 737)", lg.Day, lg.Date, lg.Equipment)
	}
	if lg.FlightNumber != "" || lg.DepartureStation != "" || lg.DepartureTime != "" {
		t.Errorf("starved fields set: (%q, %q, %q)", lg.FlightNumber, lg.DepartureStation, lg.DepartureTime)
	}
	if lg.Meal != "" || lg.ArrivalStation != "" || lg.ArrivalTime != "" || lg.BlockTime != "" || lg.Remarks != "" {
		t.Error("trailing fields should stay empty on a short line")
	}
}
