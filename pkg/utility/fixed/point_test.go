package fixed

import (
	"testing"
)

func TestFixedPoint_Arithmetic(t *testing.T) {
	tests := []struct {
		name   string
		result Point
		want   string
	}{
		{"Add", FromInt64(105, 1).Add(FromInt64(5, 1)), "11"},
		{"Sub", FromInt64(100, 0).Sub(FromInt64(25, 1)), "97.5"},
		{"Mul", FromInt64(3, 0).Mul(FromInt64(15, 1)), "4.5"},
		{"Div", FromInt64(9, 0).Div(FromInt64(2, 0)), "4.5"},
		{"Neg", FromInt64(10, 0).Neg(), "-10"},
		{"Abs", FromInt64(-10, 0).Abs(), "10"},
		{"DivInt", FromInt64(10, 0).DivInt(4), "2.5"},
		{"MulInt64", FromInt64(25, 1).MulInt64(4), "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFixedPoint_Comparison(t *testing.T) {
	a := FromFloat64(100.5)
	b := FromFloat64(100.25)

	if !a.Gt(b) {
		t.Error("expected a > b")
	}
	if !b.Lt(a) {
		t.Error("expected b < a")
	}
	if !a.Gte(FromFloat64(100.5)) || !a.Lte(FromFloat64(100.5)) {
		t.Error("expected a == 100.5")
	}
	if !a.Eq(FromInt64(1005, 1)) {
		t.Error("expected equality to be scale independent")
	}
	if !Zero.IsZero() {
		t.Error("expected zero")
	}
}

func TestFixedPoint_SnapToStep(t *testing.T) {
	tests := []struct {
		name  string
		value Point
		step  Point
		want  string
	}{
		{"ExactMultiple", FromFloat64(100.25), FromFloat64(0.25), "100.25"},
		{"RoundsDown", FromFloat64(100.26), FromFloat64(0.25), "100.25"},
		{"RoundsUp", FromFloat64(100.40), FromFloat64(0.25), "100.5"},
		{"ZeroStep", FromFloat64(100.26), Zero, "100.26"},
		{"WholeStep", FromFloat64(1234.7), One, "1235"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.SnapToStep(tt.step); got.String() != tt.want {
				t.Errorf("SnapToStep() = %s, want %s", got.String(), tt.want)
			}
		})
	}
}

func TestFixedPoint_TextMarshalling(t *testing.T) {
	p := FromFloat64(4212.75)

	data, err := p.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(data) != "4212.75" {
		t.Errorf("got %s, want 4212.75", data)
	}

	var back Point
	if err := back.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if !back.Eq(p) {
		t.Errorf("round trip mismatch: %s != %s", back.String(), p.String())
	}

	if err := back.UnmarshalText([]byte("not-a-number")); err == nil {
		t.Error("expected error for invalid input")
	}
}
