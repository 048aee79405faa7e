package middleware

import (
	"testing"
)

func TestMiddleware_Chain(t *testing.T) {
	type handler func(int) int

	add10 := func(h handler) handler {
		return func(n int) int {
			return h(n) + 10
		}
	}

	multiply2 := func(h handler) handler {
		return func(n int) int {
			return h(n) * 2
		}
	}

	base := func(n int) int {
		return n
	}

	chained := Chain(add10, multiply2)(base)
	result := chained(5)

	if result != 20 {
		t.Errorf("Expected 20, got %d", result)
	}
}

func TestMiddleware_ChainEmpty(t *testing.T) {
	type handler func(string) string

	base := func(s string) string {
		return s
	}

	chained := Chain[handler]()(base)
	result := chained("test")

	if result != "test" {
		t.Errorf("Expected 'test', got %s", result)
	}
}

func TestMiddleware_ChainOrder(t *testing.T) {
	type handler func([]string) []string

	appendA := func(h handler) handler {
		return func(s []string) []string {
			return append(h(s), "A")
		}
	}

	appendB := func(h handler) handler {
		return func(s []string) []string {
			return append(h(s), "B")
		}
	}

	base := func(s []string) []string {
		return append(s, "base")
	}

	result := Chain(appendA, appendB)(base)(nil)

	want := []string{"base", "B", "A"}
	if len(result) != len(want) {
		t.Fatalf("Expected %v, got %v", want, result)
	}
	for i := range want {
		if result[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, result)
		}
	}
}
