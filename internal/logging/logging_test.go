package logging

import "testing"

func TestNewDefaultsToInfoOnInvalidLevel(t *testing.T) {
	logger := New(Config{Level: "not-a-level"})
	if logger.GetLevel().String() != "info" {
		t.Fatalf("expected info level fallback, got %s", logger.GetLevel().String())
	}
}

func TestNewHonorsExplicitLevel(t *testing.T) {
	logger := New(Config{Level: "debug"})
	if logger.GetLevel().String() != "debug" {
		t.Fatalf("expected debug level, got %s", logger.GetLevel().String())
	}
}
