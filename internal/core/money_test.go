package core

import (
	"reflect"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"", 0},
		{"abc", 0},
		{"3,50", 350},
		{"2.500,00", 250000},
		{"1.234.567,89", 123456789},
		{"12", 1200},
		{" 7,5 ", 750},
		{"0,005", 1},
		{"0,004", 0},
		{"1,2,3", 0},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseAmount(tc.in); got != tc.out {
				t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.out)
			}
		})
	}
}

func TestSplitEvenly(t *testing.T) {
	cases := []struct {
		total int64
		n     int
		want  []int64
	}{
		{1000, 3, []int64{334, 333, 333}},
		{1001, 3, []int64{334, 334, 333}},
		{999, 3, []int64{333, 333, 333}},
		{5, 7, []int64{1, 1, 1, 1, 1, 0, 0}},
		{0, 2, []int64{0, 0}},
		{100, 0, nil},
	}
	for _, tc := range cases {
		got := SplitEvenly(tc.total, tc.n)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("SplitEvenly(%d, %d) = %v, want %v", tc.total, tc.n, got, tc.want)
		}
		var sum int64
		for _, p := range got {
			sum += p
		}
		if tc.n > 0 && sum != tc.total {
			t.Fatalf("parts of %d sum to %d", tc.total, sum)
		}
	}
}

func TestFormatCents(t *testing.T) {
	if got := FormatCents(123456, "BRL"); got != "BRL 1234.56" {
		t.Fatalf("got %q", got)
	}
	if got := FormatCents(-5, ""); got != "-0.05" {
		t.Fatalf("got %q", got)
	}
}
